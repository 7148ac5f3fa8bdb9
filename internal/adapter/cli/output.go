package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/anchorlab/reanchor/internal/domain"
	"github.com/anchorlab/reanchor/internal/usecase/relocate"
)

var (
	headerColor    = color.New(color.Bold)
	relocatedColor = color.New(color.FgGreen)
	lostColor      = color.New(color.FgRed)
	unchangedColor = color.New(color.Faint)
	addedColor     = color.New(color.FgGreen)
	removedColor   = color.New(color.FgRed)
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderReport(w io.Writer, report relocate.Report) {
	headerColor.Fprintf(w, "%s @ %s\n", report.Path, shortHash(report.Head))
	if len(report.Outcomes) == 0 {
		_, _ = fmt.Fprintln(w, "no threads anchored to this file")
		return
	}
	for _, outcome := range report.Outcomes {
		renderOutcome(w, outcome)
	}
}

func renderOutcome(w io.Writer, outcome relocate.AnchorOutcome) {
	switch outcome.Status {
	case relocate.StatusRelocated:
		relocatedColor.Fprintf(w, "  %-9s %s  %s -> %s\n",
			outcome.Status, outcome.ThreadID, outcome.Original.String(), outcome.Current.String())
	case relocate.StatusLost:
		lostColor.Fprintf(w, "  %-9s %s  was %s @ %s\n",
			outcome.Status, outcome.ThreadID, outcome.Original.String(), shortHash(outcome.Revision))
	default:
		unchangedColor.Fprintf(w, "  %-9s %s  %s\n",
			outcome.Status, outcome.ThreadID, outcome.Original.String())
	}
}

func renderThreads(w io.Writer, threads []domain.Thread) {
	if len(threads) == 0 {
		_, _ = fmt.Fprintln(w, "no threads")
		return
	}
	for _, thread := range threads {
		marker := " "
		if thread.Resolved {
			marker = "x"
		}
		position := thread.Anchor.Range.String()
		if thread.CurrentRange != nil {
			position = thread.CurrentRange.String()
		}
		_, _ = fmt.Fprintf(w, "[%s] %s  %s %s  %s\n",
			marker, thread.ID, thread.File, position, firstLine(thread.Body))
	}
}

func renderExplanation(w io.Writer, explanation relocate.Explanation) {
	thread := explanation.Thread
	headerColor.Fprintf(w, "thread %s on %s\n", thread.ID, thread.File)
	_, _ = fmt.Fprintf(w, "anchored at %s @ %s\n", thread.Anchor.Range.String(), shortHash(thread.Anchor.Revision))
	if thread.CurrentRange != nil {
		_, _ = fmt.Fprintf(w, "now at %s\n", thread.CurrentRange.String())
	} else {
		_, _ = fmt.Fprintln(w, "not found in the working tree")
	}

	if explanation.Current != "" && explanation.Current != thread.Anchor.CapturedText {
		_, _ = fmt.Fprintln(w)
		renderTextDiff(w, thread.Anchor.CapturedText, explanation.Current)
	}

	if strings.TrimSpace(explanation.Patch) != "" {
		_, _ = fmt.Fprintln(w)
		renderPatch(w, explanation.Patch)
	}
}

// renderTextDiff highlights how the captured text drifted from what the range
// covers now.
func renderTextDiff(w io.Writer, captured, current string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(captured, current, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			addedColor.Fprint(w, d.Text)
		case diffmatchpatch.DiffDelete:
			removedColor.Fprint(w, d.Text)
		default:
			_, _ = fmt.Fprint(w, d.Text)
		}
	}
	_, _ = fmt.Fprintln(w)
}

func renderPatch(w io.Writer, patch string) {
	for _, line := range strings.Split(strings.TrimRight(patch, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			addedColor.Fprintln(w, line)
		case strings.HasPrefix(line, "-"):
			removedColor.Fprintln(w, line)
		default:
			_, _ = fmt.Fprintln(w, line)
		}
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// firstLine trims a comment body to a single list-friendly line.
func firstLine(body string) string {
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		body = body[:idx]
	}
	const limit = 72
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
