package locate_test

import (
	"testing"

	"github.com/anchorlab/reanchor/internal/domain"
	"github.com/anchorlab/reanchor/internal/locate"
)

func TestFindSingleLineUnique(t *testing.T) {
	lines := []string{
		"func handler(w http.ResponseWriter, r *http.Request) {",
		"\ty := parse(r)",
		"\tx := compute(y) // note",
		"}",
	}

	got := locate.Find("  x := compute(y)  ", lines)
	if got == nil {
		t.Fatalf("expected a match")
	}

	expected := domain.Range{StartLine: 3, StartColumn: 2, EndLine: 3, EndColumn: 17}
	if *got != expected {
		t.Fatalf("expected %s, got %s", expected.Key(), got.Key())
	}
}

func TestFindSingleLineAmbiguous(t *testing.T) {
	lines := []string{
		"total += count",
		"other()",
		"total += count",
	}

	if got := locate.Find("total += count", lines); got != nil {
		t.Fatalf("ambiguous snippet should not match, got %s", got.Key())
	}
}

func TestFindMultiLineBlock(t *testing.T) {
	lines := []string{
		"intro",
		"prefix end of first",
		"whole middle",
		"start of last // trailing",
		"outro",
	}
	text := "end of first\nwhole middle\nstart of last"

	got := locate.Find(text, lines)
	if got == nil {
		t.Fatalf("expected a match")
	}

	expected := domain.Range{StartLine: 2, StartColumn: 8, EndLine: 4, EndColumn: 14}
	if *got != expected {
		t.Fatalf("expected %s, got %s", expected.Key(), got.Key())
	}
}

func TestFindPartialBlockWhenMiddleChanged(t *testing.T) {
	lines := []string{
		"header()",
		"call alpha",
		"rewritten beyond recognition",
		"gamma longer tail(x)",
		"footer()",
	}
	text := "alpha\nbeta beta beta\ngamma longer tail(x)"

	got := locate.Find(text, lines)
	if got == nil {
		t.Fatalf("expected the longest partial block to match")
	}

	// The final needle line carries the most characters, so its lone match
	// wins over the shorter first-line match.
	expected := domain.Range{StartLine: 4, StartColumn: 1, EndLine: 4, EndColumn: 21}
	if *got != expected {
		t.Fatalf("expected %s, got %s", expected.Key(), got.Key())
	}
}

func TestFindTiedLocations(t *testing.T) {
	lines := []string{
		"one two",
		"three four",
		"pad",
		"one two",
		"three four",
	}
	text := "one two\nthree four"

	if got := locate.Find(text, lines); got != nil {
		t.Fatalf("tied matches should produce no result, got %s", got.Key())
	}
}

func TestFindBlankInteriorLine(t *testing.T) {
	lines := []string{
		"x alpha",
		"",
		"beta y",
	}
	text := "alpha\n\nbeta"

	got := locate.Find(text, lines)
	if got == nil {
		t.Fatalf("expected match across the blank line")
	}

	expected := domain.Range{StartLine: 1, StartColumn: 3, EndLine: 3, EndColumn: 5}
	if *got != expected {
		t.Fatalf("expected %s, got %s", expected.Key(), got.Key())
	}
}

func TestFindNoMatch(t *testing.T) {
	lines := []string{"completely", "different", "content"}

	if got := locate.Find("nothing like this", lines); got != nil {
		t.Fatalf("expected no match, got %s", got.Key())
	}
}

func TestFindEmptyText(t *testing.T) {
	lines := []string{"some", "content"}

	if locate.Find("", lines) != nil {
		t.Fatalf("empty text should not match")
	}
	if locate.Find("   \n\t\n", lines) != nil {
		t.Fatalf("whitespace-only text should not match")
	}
}
