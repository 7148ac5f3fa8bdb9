// Package locate finds previously captured text in current file content.
// It is the fallback when diff-based transformation cannot place a range,
// typically because the content moved too far or the anchoring revision is
// no longer reachable.
package locate

import (
	"strings"

	"github.com/anchorlab/reanchor/internal/domain"
)

// run scores a candidate alignment ending at a haystack line: how many
// consecutive needle lines matched and how many characters they carried.
type run struct {
	lines int
	chars int
}

// Find aligns text against lines and returns the range of the best matching
// contiguous block. Matching is whitespace-insensitive at line boundaries: a
// single-line needle may appear anywhere inside a line, the first line of a
// multi-line needle must end a line, the last must begin one, and interior
// lines must match exactly after trimming. The candidate matching the most
// characters wins; if several tie, or nothing matches, Find returns nil.
func Find(text string, lines []string) *domain.Range {
	needle := trimmedLines(text)
	if len(needle) == 0 {
		return nil
	}

	type hit struct {
		row int // haystack index of the last matched line
		col int // needle index of the last matched line
	}

	best := run{}
	var hits []hit

	previous := make([]run, len(needle))
	current := make([]run, len(needle))
	for i, raw := range lines {
		hay := strings.TrimSpace(raw)
		for j, want := range needle {
			if !lineMatches(hay, want, j, len(needle)) {
				current[j] = run{}
				continue
			}

			r := run{lines: 1, chars: domain.UTF16Len(want)}
			if j > 0 && previous[j-1].lines > 0 {
				r.lines = previous[j-1].lines + 1
				r.chars = previous[j-1].chars + domain.UTF16Len(want)
			}
			current[j] = r

			switch {
			case r.chars > best.chars:
				best = r
				hits = hits[:0]
				hits = append(hits, hit{row: i, col: j})
			case r.chars == best.chars && r.chars > 0:
				hits = append(hits, hit{row: i, col: j})
			}
		}
		previous, current = current, previous
	}

	if best.chars == 0 || len(hits) != 1 {
		return nil
	}

	winner := hits[0]
	firstRow := winner.row - best.lines + 1
	firstNeedle := winner.col - best.lines + 1
	return matchRange(lines, needle, firstRow, winner.row, firstNeedle, winner.col)
}

// lineMatches applies the per-position matching rule for one needle line
// against one trimmed haystack line.
func lineMatches(hay, want string, index, total int) bool {
	if want == "" {
		return hay == ""
	}
	if total == 1 {
		return strings.Contains(hay, want)
	}
	switch index {
	case 0:
		return strings.HasSuffix(hay, want)
	case total - 1:
		return strings.HasPrefix(hay, want)
	default:
		return hay == want
	}
}

// matchRange computes the precise columns of a winning alignment from where
// the trimmed needle text sits inside the raw boundary lines.
func matchRange(lines, needle []string, firstRow, lastRow, firstNeedle, lastNeedle int) *domain.Range {
	firstRaw := lines[firstRow]
	firstWant := needle[firstNeedle]
	startOffset := matchOffset(firstRaw, firstWant, firstNeedle, len(needle))

	lastRaw := lines[lastRow]
	lastWant := needle[lastNeedle]
	endOffset := matchOffset(lastRaw, lastWant, lastNeedle, len(needle))

	if startOffset < 0 || endOffset < 0 {
		return nil
	}

	return &domain.Range{
		StartLine:   firstRow + 1,
		StartColumn: domain.UTF16Len(firstRaw[:startOffset]) + 1,
		EndLine:     lastRow + 1,
		EndColumn:   domain.UTF16Len(lastRaw[:endOffset]) + domain.UTF16Len(lastWant) + 1,
	}
}

// matchOffset finds the byte offset of a matched needle line inside the raw
// haystack line, honoring the same per-position rule used for matching. The
// first line of a multi-line needle matches as a suffix, so its offset is
// the last occurrence.
func matchOffset(raw, want string, index, total int) int {
	if want == "" {
		return 0
	}
	if index == 0 && total > 1 {
		return strings.LastIndex(raw, want)
	}
	return strings.Index(raw, want)
}

// trimmedLines splits the captured text and trims each line for matching.
func trimmedLines(text string) []string {
	raw := domain.SplitLines(text)
	trimmed := make([]string, len(raw))
	allEmpty := true
	for i, line := range raw {
		trimmed[i] = strings.TrimSpace(line)
		if trimmed[i] != "" {
			allEmpty = false
		}
	}
	if allEmpty {
		return nil
	}
	return trimmed
}
