// Package domain defines the shared model for comment threads, anchored
// ranges, and the relocation batches exchanged with worker processes.
package domain

// RevisionLines carries the full content of one file at one revision.
type RevisionLines struct {
	Revision string   `msgpack:"revision" json:"revision"`
	Lines    []string `msgpack:"lines" json:"lines"`
}

// RevisionRange names a range in a file as it existed at a revision, plus
// the text the range covered when it was captured. Text powers the content
// search fallback when diffing cannot place the range.
type RevisionRange struct {
	Revision string `msgpack:"revision" json:"revision"`
	Range    Range  `msgpack:"range" json:"range"`
	Text     string `msgpack:"text,omitempty" json:"text,omitempty"`
}

// RelocationBatch is one worker request: every tracked range of a file,
// the file content at each referenced revision, and the current content to
// relocate against.
type RelocationBatch struct {
	RevLines      []RevisionLines `msgpack:"revLines" json:"revLines"`
	RevRanges     []RevisionRange `msgpack:"revRanges" json:"revRanges"`
	ModifiedLines []string        `msgpack:"modifiedLines" json:"modifiedLines"`
}

// RevisionResult maps range keys to relocated ranges. A nil range records
// that the tracked content no longer exists in the current file.
type RevisionResult map[string]*Range

// DiffResult groups relocation outcomes by revision.
type DiffResult map[string]RevisionResult
