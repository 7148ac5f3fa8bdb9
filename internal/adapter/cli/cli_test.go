package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/anchorlab/reanchor/internal/adapter/cli"
	"github.com/anchorlab/reanchor/internal/domain"
	"github.com/anchorlab/reanchor/internal/usecase/relocate"
)

type relocatorStub struct {
	relocatedPath string
	report        relocate.Report
	reportErr     error

	created relocate.CreateThreadInput
	thread  domain.Thread

	listedPath string
	threads    []domain.Thread

	resolvedID string
	resolveErr error

	deletedID string
	deleteErr error

	explainedID string
	explanation relocate.Explanation
}

func (r *relocatorStub) RelocateFile(ctx context.Context, path string) (relocate.Report, error) {
	r.relocatedPath = path
	return r.report, r.reportErr
}

func (r *relocatorStub) CreateThread(ctx context.Context, input relocate.CreateThreadInput) (domain.Thread, error) {
	r.created = input
	if r.thread.ID == "" {
		r.thread = domain.Thread{
			ID:     "stub-thread",
			File:   input.Path,
			Anchor: domain.Anchor{Revision: "feedfeedfeedfeedfeed", Range: input.Range},
		}
	}
	return r.thread, nil
}

func (r *relocatorStub) ListThreads(ctx context.Context, path string) ([]domain.Thread, error) {
	r.listedPath = path
	return r.threads, nil
}

func (r *relocatorStub) ResolveThread(ctx context.Context, id string) error {
	r.resolvedID = id
	return r.resolveErr
}

func (r *relocatorStub) DeleteThread(ctx context.Context, id string) error {
	r.deletedID = id
	return r.deleteErr
}

func (r *relocatorStub) ExplainThread(ctx context.Context, id string) (relocate.Explanation, error) {
	r.explainedID = id
	return r.explanation, nil
}

type reportWriterStub struct {
	dir     string
	written relocate.Report
}

func (w *reportWriterStub) Write(ctx context.Context, report relocate.Report, outputDir string) (string, error) {
	w.dir = outputDir
	w.written = report
	return outputDir + "/report.md", nil
}

func sampleReport() relocate.Report {
	moved := &domain.Range{StartLine: 9, StartColumn: 2, EndLine: 9, EndColumn: 17}
	return relocate.Report{
		Path: "internal/app/run.go",
		Head: "feedfeedfeedfeedfeedfeedfeedfeedfeedfeed",
		Outcomes: []relocate.AnchorOutcome{
			{
				ThreadID: "thread-1",
				Author:   "alice",
				Body:     "tighten this loop",
				Revision: "cafecafecafecafecafe",
				Original: domain.Range{StartLine: 4, StartColumn: 2, EndLine: 4, EndColumn: 17},
				Current:  moved,
				Status:   relocate.StatusRelocated,
			},
			{
				ThreadID: "thread-2",
				Author:   "bob",
				Body:     "dead code?",
				Revision: "cafecafecafecafecafe",
				Original: domain.Range{StartLine: 12, StartColumn: 1, EndLine: 13, EndColumn: 1},
				Status:   relocate.StatusLost,
			},
		},
	}
}

func TestRelocateCommandRendersOutcomes(t *testing.T) {
	stub := &relocatorStub{report: sampleReport()}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"relocate", "internal/app/run.go"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.relocatedPath != "internal/app/run.go" {
		t.Fatalf("expected relocate path internal/app/run.go, got %s", stub.relocatedPath)
	}

	out := buf.String()
	if !strings.Contains(out, "relocated") || !strings.Contains(out, "4:2-4:17 -> 9:2-9:17") {
		t.Fatalf("expected relocated outcome line, got %q", out)
	}
	if !strings.Contains(out, "lost") || !strings.Contains(out, "thread-2") {
		t.Fatalf("expected lost outcome line, got %q", out)
	}
}

func TestRelocateCommandEmitsJSON(t *testing.T) {
	stub := &relocatorStub{report: sampleReport()}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"relocate", "internal/app/run.go", "--json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	var decoded relocate.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Path != "internal/app/run.go" {
		t.Fatalf("expected path in JSON output, got %s", decoded.Path)
	}
	if len(decoded.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes in JSON output, got %d", len(decoded.Outcomes))
	}
	if decoded.Outcomes[1].Current != nil {
		t.Fatalf("expected lost outcome to omit current range")
	}
}

func TestRelocateCommandWritesReport(t *testing.T) {
	stub := &relocatorStub{report: sampleReport()}
	writer := &reportWriterStub{}
	errBuf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator:        stub,
		ReportWriter:     writer,
		Args:             cli.Arguments{OutWriter: io.Discard, ErrWriter: errBuf},
		DefaultReportDir: "build",
		Version:          "v1.2.3",
	})

	root.SetArgs([]string{"relocate", "internal/app/run.go", "--report"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if writer.dir != "build" {
		t.Fatalf("expected default report dir build, got %s", writer.dir)
	}
	if writer.written.Path != "internal/app/run.go" {
		t.Fatalf("expected report to be handed to the writer, got %+v", writer.written)
	}
	if !strings.Contains(errBuf.String(), "report written to build/report.md") {
		t.Fatalf("expected written path on stderr, got %q", errBuf.String())
	}
}

func TestThreadsAddParsesRange(t *testing.T) {
	stub := &relocatorStub{}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{
		"threads", "add", "internal/app/run.go",
		"--range", "3,1,4,5",
		"--at", "abc123",
		"--author", "carol",
		"-m", "rename this",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	want := domain.Range{StartLine: 3, StartColumn: 1, EndLine: 4, EndColumn: 5}
	if stub.created.Range != want {
		t.Fatalf("expected range %v, got %v", want, stub.created.Range)
	}
	if stub.created.Revision != "abc123" {
		t.Fatalf("expected revision abc123, got %s", stub.created.Revision)
	}
	if stub.created.Author != "carol" {
		t.Fatalf("expected author carol, got %s", stub.created.Author)
	}
	if stub.created.Body != "rename this" {
		t.Fatalf("expected body to be passed through, got %q", stub.created.Body)
	}
	if !strings.Contains(buf.String(), "stub-thread") {
		t.Fatalf("expected thread id in output, got %q", buf.String())
	}
}

func TestThreadsAddDefaultsAuthor(t *testing.T) {
	stub := &relocatorStub{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator:     stub,
		Args:          cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		DefaultAuthor: "dave",
		Version:       "v1.2.3",
	})

	root.SetArgs([]string{"threads", "add", "main.go", "--range", "1,1,2,1", "-m", "note"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.created.Author != "dave" {
		t.Fatalf("expected default author dave, got %s", stub.created.Author)
	}
}

func TestThreadsAddRejectsMalformedRange(t *testing.T) {
	stub := &relocatorStub{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"threads", "add", "main.go", "--range", "3,1", "-m", "note"})
	err := root.Execute()
	if err == nil {
		t.Fatal("expected an error for a malformed range")
	}
	if !strings.Contains(err.Error(), "parse --range") {
		t.Fatalf("expected range parse error, got %v", err)
	}
	if stub.created.Path != "" {
		t.Fatal("expected no thread to be created")
	}
}

func TestThreadsListFiltersByPath(t *testing.T) {
	stub := &relocatorStub{threads: []domain.Thread{
		{
			ID:        "thread-1",
			File:      "internal/app/run.go",
			Body:      "tighten this loop\nand the one below",
			CreatedAt: time.Unix(1700000000, 0),
			Anchor: domain.Anchor{
				Revision: "cafecafecafecafecafe",
				Range:    domain.Range{StartLine: 4, StartColumn: 2, EndLine: 4, EndColumn: 17},
			},
		},
	}}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"threads", "list", "internal/app/run.go"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.listedPath != "internal/app/run.go" {
		t.Fatalf("expected list filter path, got %s", stub.listedPath)
	}
	out := buf.String()
	if !strings.Contains(out, "thread-1") || !strings.Contains(out, "4:2-4:17") {
		t.Fatalf("expected thread line in output, got %q", out)
	}
	if strings.Contains(out, "and the one below") {
		t.Fatalf("expected body trimmed to its first line, got %q", out)
	}
}

func TestThreadsListEmitsJSON(t *testing.T) {
	stub := &relocatorStub{threads: []domain.Thread{
		{
			ID:   "thread-1",
			File: "main.go",
			Anchor: domain.Anchor{
				Revision: "cafecafecafecafecafe",
				Range:    domain.Range{StartLine: 1, StartColumn: 1, EndLine: 2, EndColumn: 1},
			},
		},
	}}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"threads", "list", "--json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	var decoded []domain.Thread
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != "thread-1" {
		t.Fatalf("unexpected decoded threads: %+v", decoded)
	}
}

func TestThreadsResolveInvokesUseCase(t *testing.T) {
	stub := &relocatorStub{}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"threads", "resolve", "thread-9"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.resolvedID != "thread-9" {
		t.Fatalf("expected resolve id thread-9, got %s", stub.resolvedID)
	}
	if !strings.Contains(buf.String(), "thread-9 resolved") {
		t.Fatalf("expected confirmation, got %q", buf.String())
	}
}

func TestThreadsRemoveReportsMissingThread(t *testing.T) {
	stub := &relocatorStub{deleteErr: errors.New("thread not found: thread-9")}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"threads", "rm", "thread-9"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "thread not found") {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

func TestThreadsRemoveInvokesUseCase(t *testing.T) {
	stub := &relocatorStub{}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"threads", "rm", "thread-7"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.deletedID != "thread-7" {
		t.Fatalf("expected delete id thread-7, got %s", stub.deletedID)
	}
	if !strings.Contains(buf.String(), "thread-7 deleted") {
		t.Fatalf("expected confirmation, got %q", buf.String())
	}
}

func TestExplainRendersPatchAndPosition(t *testing.T) {
	current := &domain.Range{StartLine: 9, StartColumn: 2, EndLine: 9, EndColumn: 17}
	stub := &relocatorStub{explanation: relocate.Explanation{
		Thread: domain.Thread{
			ID:   "thread-1",
			File: "internal/app/run.go",
			Anchor: domain.Anchor{
				Revision:     "cafecafecafecafecafe",
				Range:        domain.Range{StartLine: 4, StartColumn: 2, EndLine: 4, EndColumn: 17},
				CapturedText: "return retries",
			},
			CurrentRange: current,
		},
		Patch:   "@@ -4,1 +9,1 @@\n-return retries\n+return maxRetries\n",
		Current: "return maxRetries",
	}}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: stub,
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v1.2.3",
	})

	root.SetArgs([]string{"explain", "thread-1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.explainedID != "thread-1" {
		t.Fatalf("expected explain id thread-1, got %s", stub.explainedID)
	}
	out := buf.String()
	if !strings.Contains(out, "thread thread-1 on internal/app/run.go") {
		t.Fatalf("expected header, got %q", out)
	}
	if !strings.Contains(out, "now at 9:2-9:17") {
		t.Fatalf("expected current position, got %q", out)
	}
	if !strings.Contains(out, "+return maxRetries") {
		t.Fatalf("expected patch lines, got %q", out)
	}
}

func TestWorkerCommandRunsServeLoop(t *testing.T) {
	served := false
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: &relocatorStub{},
		WorkerServe: func(ctx context.Context) error {
			served = true
			return nil
		},
		Args:    cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Version: "v1.2.3",
	})

	root.SetArgs([]string{"worker"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if !served {
		t.Fatal("expected the serve loop to run")
	}
}

func TestVersionFlagEmitsVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Relocator: &relocatorStub{},
		Args:      cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:   "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}
