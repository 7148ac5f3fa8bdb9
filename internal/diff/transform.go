package diff

import (
	"strings"

	"github.com/anchorlab/reanchor/internal/domain"
)

// Transformer maps ranges expressed in an original file's coordinates to the
// matching coordinates in the modified file a diff describes. It is immutable
// once built and safe for concurrent use.
//
// Whitespace-only rewrites of a line keep ranges on that line, shifting
// columns by the change in leading whitespace. A line that was deleted and
// re-added verbatim elsewhere carries its ranges to the re-added location;
// when the same text reappears in several places the last occurrence wins.
type Transformer struct {
	hunks    []Hunk
	original []string

	// context lines inside hunks, original line number to modified.
	context map[int]int
	// removed original lines to their text.
	removed map[int]string
	// trimmed text of added lines to the last place it was added.
	added map[string]addedLine
	// cumulative line offsets, keyed by the first original line they apply to.
	offsets []offsetPoint
}

type addedLine struct {
	line int // modified-file line number
	text string
}

type offsetPoint struct {
	firstLine int
	offset    int
}

// lineMapping is one original line's surviving location.
type lineMapping struct {
	line  int    // modified-file line number
	text  string // content of the line in the modified file
	shift int    // column shift, nonzero for whitespace-only rewrites
}

type position struct {
	line   int
	column int
}

// NewTransformer builds a Transformer from a parsed diff and the original
// file content the diff was computed from. Original lines let the
// transformer place narrowed range edges at real line ends; passing nil
// degrades those edges to column one.
func NewTransformer(parsed ParsedDiff, original []string) *Transformer {
	t := &Transformer{
		hunks:    parsed.Hunks,
		original: original,
		context:  make(map[int]int),
		removed:  make(map[int]string),
		added:    make(map[string]addedLine),
	}

	cumulative := 0
	for _, h := range parsed.Hunks {
		originalStart, originalCount := h.originalSpan()
		modifiedStart, _ := h.modifiedSpan()

		originalCursor := originalStart
		modifiedCursor := modifiedStart
		for _, line := range h.Lines {
			switch line.Kind {
			case LineContext:
				t.context[originalCursor] = modifiedCursor
				originalCursor++
				modifiedCursor++
			case LineRemoved:
				t.removed[originalCursor] = line.Text
				originalCursor++
			case LineAdded:
				if key := strings.TrimSpace(line.Text); key != "" {
					t.added[key] = addedLine{line: modifiedCursor, text: line.Text}
				}
				modifiedCursor++
			}
		}

		cumulative += h.ModifiedCount - h.OriginalCount
		t.offsets = append(t.offsets, offsetPoint{firstLine: originalStart + originalCount, offset: cumulative})
	}

	return t
}

// Transform maps r from original coordinates to modified coordinates. It
// returns nil when the content the range covered no longer exists anywhere
// in the modified file.
//
// A multi-line range that loses only one edge is narrowed instead of
// dropped: a lost end moves back to the end of the last line still present,
// a lost start moves forward to the beginning of the first line still
// present.
func (t *Transformer) Transform(r domain.Range) *domain.Range {
	if len(t.hunks) == 0 {
		out := r
		return &out
	}

	start, okStart := t.resolvePosition(r.StartLine, r.StartColumn)
	end, okEnd := t.resolvePosition(r.EndLine, r.EndColumn)

	switch {
	case !okStart && !okEnd:
		return nil
	case okStart && !okEnd:
		if !r.IsMultiLine() {
			return nil
		}
		end, okEnd = t.lastSurvivingEnd(r.StartLine, r.EndLine-1)
		if !okEnd {
			return nil
		}
	case !okStart && okEnd:
		if !r.IsMultiLine() {
			return nil
		}
		start, okStart = t.firstSurvivingStart(r.StartLine+1, r.EndLine)
		if !okStart {
			return nil
		}
	}

	out := domain.Range{
		StartLine:   start.line,
		StartColumn: start.column,
		EndLine:     end.line,
		EndColumn:   end.column,
	}
	if !out.IsValid() {
		return nil
	}
	return &out
}

// resolvePosition maps one original position to the modified file.
func (t *Transformer) resolvePosition(line, column int) (position, bool) {
	m, ok := t.resolveLine(line)
	if !ok {
		return position{}, false
	}
	if m.shift == 0 {
		return position{line: m.line, column: column}, true
	}
	return position{line: m.line, column: clampColumn(column+m.shift, m.text)}, true
}

// resolveLine finds where an original line survives in the modified file.
// Context lines map directly, lines outside every hunk shift by the
// accumulated offset, and removed lines survive only when their trimmed text
// was re-added somewhere.
func (t *Transformer) resolveLine(line int) (lineMapping, bool) {
	if modified, ok := t.context[line]; ok {
		return lineMapping{line: modified, text: t.lineText(line)}, true
	}
	if text, ok := t.removed[line]; ok {
		key := strings.TrimSpace(text)
		if key == "" {
			return lineMapping{}, false
		}
		target, found := t.added[key]
		if !found {
			return lineMapping{}, false
		}
		return lineMapping{
			line:  target.line,
			text:  target.text,
			shift: leadingWidth(target.text) - leadingWidth(text),
		}, true
	}
	return lineMapping{line: line + t.offsetFor(line), text: t.lineText(line)}, true
}

// lastSurvivingEnd walks [low, high] downward and returns the position just
// past the last character of the first line found in the modified file.
func (t *Transformer) lastSurvivingEnd(low, high int) (position, bool) {
	for line := high; line >= low; line-- {
		if m, ok := t.resolveLine(line); ok {
			return position{line: m.line, column: domain.UTF16Len(m.text) + 1}, true
		}
	}
	return position{}, false
}

// firstSurvivingStart walks [low, high] upward and returns the start of the
// first line found in the modified file.
func (t *Transformer) firstSurvivingStart(low, high int) (position, bool) {
	for line := low; line <= high; line++ {
		if m, ok := t.resolveLine(line); ok {
			return position{line: m.line, column: 1}, true
		}
	}
	return position{}, false
}

// offsetFor returns the cumulative line offset for an original line outside
// every hunk region.
func (t *Transformer) offsetFor(line int) int {
	offset := 0
	for _, p := range t.offsets {
		if line < p.firstLine {
			break
		}
		offset = p.offset
	}
	return offset
}

func (t *Transformer) lineText(line int) string {
	if line < 1 || line > len(t.original) {
		return ""
	}
	return t.original[line-1]
}

// leadingWidth measures a line's leading whitespace in UTF-16 code units.
func leadingWidth(s string) int {
	width := 0
	for _, r := range s {
		if r != ' ' && r != '\t' {
			break
		}
		width++
	}
	return width
}

func clampColumn(column int, text string) int {
	if column < 1 {
		return 1
	}
	if limit := domain.UTF16Len(text) + 1; column > limit {
		return limit
	}
	return column
}
