package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LineKind classifies a single line within a hunk body.
type LineKind int

const (
	// LineContext is an unchanged line present in both file versions.
	LineContext LineKind = iota
	// LineAdded is a line present only in the modified file.
	LineAdded
	// LineRemoved is a line present only in the original file.
	LineRemoved
)

// Line is one classified line of a hunk body, without its prefix character.
type Line struct {
	Kind LineKind
	Text string
}

// Hunk describes one contiguous changed region of a unified diff. Counts
// follow the unified format: a count of zero means the start field names the
// line before the affected region rather than its first line.
type Hunk struct {
	OriginalStart int
	OriginalCount int
	ModifiedStart int
	ModifiedCount int
	Lines         []Line
}

// originalSpan returns the effective original-file region [start, start+count).
func (h Hunk) originalSpan() (start, count int) {
	if h.OriginalCount == 0 {
		return h.OriginalStart + 1, 0
	}
	return h.OriginalStart, h.OriginalCount
}

// modifiedSpan returns the effective modified-file region [start, start+count).
func (h Hunk) modifiedSpan() (start, count int) {
	if h.ModifiedCount == 0 {
		return h.ModifiedStart + 1, 0
	}
	return h.ModifiedStart, h.ModifiedCount
}

// ParsedDiff is the ordered hunk list parsed from one file's diff text.
type ParsedDiff struct {
	Hunks []Hunk
}

// ParseError reports malformed diff text together with the offending line.
type ParseError struct {
	Line   int // 1-indexed position within the diff text
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("diff parse error at line %d: %s: %q", e.Line, e.Reason, e.Text)
}

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse parses unified diff text into an ordered hunk list. Zero-context and
// full-context diffs of the same edit parse to equivalent hunks. File headers
// and other text between hunks are skipped, but a malformed hunk header or
// body aborts the parse with a *ParseError.
func Parse(patch string) (ParsedDiff, error) {
	result := ParsedDiff{}
	if patch == "" {
		return result, nil
	}

	lines := strings.Split(patch, "\n")
	i := 0
	for i < len(lines) {
		if !strings.HasPrefix(lines[i], "@@") {
			// File headers and prose between hunks.
			i++
			continue
		}

		hunk, err := parseHunkHeader(lines[i], i+1)
		if err != nil {
			return ParsedDiff{}, err
		}
		i++

		remainingOriginal := hunk.OriginalCount
		remainingModified := hunk.ModifiedCount
		for remainingOriginal > 0 || remainingModified > 0 {
			if i >= len(lines) {
				return ParsedDiff{}, &ParseError{Line: len(lines), Reason: "truncated hunk"}
			}

			body := lines[i]
			switch {
			case strings.HasPrefix(body, "\\"):
				// "\ No newline at end of file" belongs to neither side.
			case strings.HasPrefix(body, " "):
				hunk.Lines = append(hunk.Lines, Line{Kind: LineContext, Text: body[1:]})
				remainingOriginal--
				remainingModified--
			case strings.HasPrefix(body, "+"):
				hunk.Lines = append(hunk.Lines, Line{Kind: LineAdded, Text: body[1:]})
				remainingModified--
			case strings.HasPrefix(body, "-"):
				hunk.Lines = append(hunk.Lines, Line{Kind: LineRemoved, Text: body[1:]})
				remainingOriginal--
			case body == "":
				// Tolerate context lines whose leading space was stripped.
				hunk.Lines = append(hunk.Lines, Line{Kind: LineContext, Text: ""})
				remainingOriginal--
				remainingModified--
			default:
				return ParsedDiff{}, &ParseError{Line: i + 1, Text: body, Reason: "unexpected line in hunk body"}
			}

			if remainingOriginal < 0 || remainingModified < 0 {
				return ParsedDiff{}, &ParseError{Line: i + 1, Text: body, Reason: "hunk body exceeds header counts"}
			}
			i++
		}

		result.Hunks = append(result.Hunks, hunk)
	}

	if err := validateHunkOrder(result.Hunks); err != nil {
		return ParsedDiff{}, err
	}
	return result, nil
}

func parseHunkHeader(line string, lineNo int) (Hunk, error) {
	m := hunkHeaderPattern.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, &ParseError{Line: lineNo, Text: line, Reason: "malformed hunk header"}
	}

	originalStart, _ := strconv.Atoi(m[1])
	originalCount := 1
	if m[2] != "" {
		originalCount, _ = strconv.Atoi(m[2])
	}
	modifiedStart, _ := strconv.Atoi(m[3])
	modifiedCount := 1
	if m[4] != "" {
		modifiedCount, _ = strconv.Atoi(m[4])
	}

	return Hunk{
		OriginalStart: originalStart,
		OriginalCount: originalCount,
		ModifiedStart: modifiedStart,
		ModifiedCount: modifiedCount,
	}, nil
}

// validateHunkOrder rejects hunks that are out of order or overlap in the
// original file, which would make offset accumulation ambiguous.
func validateHunkOrder(hunks []Hunk) error {
	previousEnd := 0
	for _, h := range hunks {
		start, count := h.originalSpan()
		if start <= previousEnd {
			header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OriginalStart, h.OriginalCount, h.ModifiedStart, h.ModifiedCount)
			return &ParseError{Text: header, Reason: "hunks out of order or overlapping"}
		}
		previousEnd = start + count - 1
	}
	return nil
}
