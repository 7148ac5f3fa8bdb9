package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Unified renders the unified diff between two line slices with the given
// number of context lines. Input lines carry no terminators. Identical
// inputs produce an empty string.
func Unified(original, modified []string, contextLines int) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        terminated(original),
		B:        terminated(modified),
		FromFile: "a",
		ToFile:   "b",
		Context:  contextLines,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("render unified diff: %w", err)
	}
	return text, nil
}

// terminated appends the newline terminators the differ expects on its
// inputs.
func terminated(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}
