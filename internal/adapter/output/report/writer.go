package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/anchorlab/reanchor/internal/usecase/relocate"
)

type clock func() string

// Writer renders relocation reports into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a report writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown report to disk and returns its path.
func (w *Writer) Write(ctx context.Context, report relocate.Report, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.md",
		sanitise(report.Path),
		sanitise(shortHash(report.Head)),
		w.now(),
	)
	path := filepath.Join(outputDir, filename)

	content := buildContent(report)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}

func buildContent(report relocate.Report) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	counts := map[string]int{}
	for _, outcome := range report.Outcomes {
		counts[outcome.Status]++
	}

	builder.WriteString("# Relocation Report\n\n")
	if report.Repo != "" {
		builder.WriteString(fmt.Sprintf("- Repository: %s\n", report.Repo))
	}
	builder.WriteString(fmt.Sprintf("- File: %s\n", report.Path))
	builder.WriteString(fmt.Sprintf("- Head: %s\n", report.Head))
	builder.WriteString(fmt.Sprintf("- Threads: %d (%d relocated, %d unchanged, %d lost)\n\n",
		len(report.Outcomes),
		counts[relocate.StatusRelocated],
		counts[relocate.StatusUnchanged],
		counts[relocate.StatusLost],
	))

	if len(report.Outcomes) == 0 {
		builder.WriteString("No threads anchored to this file.\n")
		return builder.String()
	}

	builder.WriteString("## Anchors\n\n")
	for _, outcome := range report.Outcomes {
		builder.WriteString(fmt.Sprintf("### %s (%s)\n", outcome.ThreadID, caser.String(outcome.Status)))
		builder.WriteString(fmt.Sprintf("- Author: %s\n", outcome.Author))
		builder.WriteString(fmt.Sprintf("- Anchored at: %s @ %s\n", outcome.Original.String(), shortHash(outcome.Revision)))
		if outcome.Current != nil {
			builder.WriteString(fmt.Sprintf("- Now at: %s\n", outcome.Current.String()))
		} else {
			builder.WriteString("- Now at: not found\n")
		}
		builder.WriteString(fmt.Sprintf("- Comment: %s\n", excerpt(outcome.Body)))
		builder.WriteString("\n")
	}

	return builder.String()
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func excerpt(body string) string {
	body = strings.ReplaceAll(body, "\n", " ")
	const limit = 120
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}
