package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Range identifies a span of file content by 1-indexed line and column
// positions. Columns count UTF-16 code units, matching how editors address
// positions, and the end position is exclusive.
type Range struct {
	StartLine   int `msgpack:"startLine" json:"startLine"`
	StartColumn int `msgpack:"startColumn" json:"startColumn"`
	EndLine     int `msgpack:"endLine" json:"endLine"`
	EndColumn   int `msgpack:"endColumn" json:"endColumn"`
}

// Key renders r as "startLine,startColumn,endLine,endColumn". The form
// indexes per-range results in a batch and addresses ranges on the command
// line.
func (r Range) Key() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
}

// String renders r as "startLine:startColumn-endLine:endColumn" for display.
func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
}

// IsValid reports whether every position is 1-indexed and the end does not
// precede the start.
func (r Range) IsValid() bool {
	if r.StartLine < 1 || r.StartColumn < 1 || r.EndLine < 1 || r.EndColumn < 1 {
		return false
	}
	if r.EndLine < r.StartLine {
		return false
	}
	if r.EndLine == r.StartLine && r.EndColumn < r.StartColumn {
		return false
	}
	return true
}

// IsMultiLine reports whether r spans more than one line.
func (r Range) IsMultiLine() bool {
	return r.EndLine > r.StartLine
}

// ParseRangeKey parses the form produced by Key.
func ParseRangeKey(s string) (Range, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Range{}, fmt.Errorf("parse range %q: want startLine,startColumn,endLine,endColumn", s)
	}

	var nums [4]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Range{}, fmt.Errorf("parse range %q: %w", s, err)
		}
		nums[i] = n
	}

	r := Range{StartLine: nums[0], StartColumn: nums[1], EndLine: nums[2], EndColumn: nums[3]}
	if !r.IsValid() {
		return Range{}, fmt.Errorf("parse range %q: positions must be 1-indexed and ordered", s)
	}
	return r, nil
}
