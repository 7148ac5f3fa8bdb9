package domain

import (
	"fmt"
	"strings"
)

// SplitLines splits file content into lines without terminators. A trailing
// newline does not produce a final empty line, and CRLF terminators are
// stripped.
func SplitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// UTF16Len returns the length of s in UTF-16 code units. Characters outside
// the basic multilingual plane occupy two units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// ExtractRange returns the text r covers within lines, joining multi-line
// spans with newlines.
func ExtractRange(lines []string, r Range) (string, error) {
	if !r.IsValid() {
		return "", fmt.Errorf("extract range %s: invalid range", r.Key())
	}
	if r.EndLine > len(lines) {
		return "", fmt.Errorf("extract range %s: content has %d lines", r.Key(), len(lines))
	}

	if r.StartLine == r.EndLine {
		return sliceUTF16(lines[r.StartLine-1], r.StartColumn, r.EndColumn), nil
	}

	parts := make([]string, 0, r.EndLine-r.StartLine+1)
	first := lines[r.StartLine-1]
	parts = append(parts, sliceUTF16(first, r.StartColumn, UTF16Len(first)+1))
	for line := r.StartLine + 1; line < r.EndLine; line++ {
		parts = append(parts, lines[line-1])
	}
	last := lines[r.EndLine-1]
	parts = append(parts, sliceUTF16(last, 1, r.EndColumn))
	return strings.Join(parts, "\n"), nil
}

// sliceUTF16 returns the substring of s between 1-indexed UTF-16 columns
// [from, to).
func sliceUTF16(s string, from, to int) string {
	if to <= from {
		return ""
	}
	return s[byteOffset(s, from):byteOffset(s, to)]
}

// byteOffset converts a 1-indexed UTF-16 column into a byte offset, clamping
// past-the-end columns to len(s).
func byteOffset(s string, col int) int {
	units := col - 1
	for i, r := range s {
		if units <= 0 {
			return i
		}
		if r > 0xFFFF {
			units -= 2
		} else {
			units--
		}
	}
	return len(s)
}
