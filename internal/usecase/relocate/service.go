// Package relocate coordinates moving comment thread anchors to their new
// positions after file content changes.
package relocate

import (
	"context"
	"fmt"
	"time"

	"github.com/anchorlab/reanchor/internal/domain"
)

// ContentSource provides repository file content and revision resolution.
type ContentSource interface {
	// FileAtRevision returns the file's lines as they were at a revision.
	FileAtRevision(ctx context.Context, revision, path string) ([]string, error)
	// CurrentFile returns the file's lines from the working tree.
	CurrentFile(ctx context.Context, path string) ([]string, error)
	// Head returns the hash of the checked-out revision.
	Head(ctx context.Context) (string, error)
	// ResolveRevision normalizes a ref name to a full hash.
	ResolveRevision(ctx context.Context, revision string) (string, error)
	// DiffText renders the diff between a revision and the working tree
	// for one file, with the requested context width.
	DiffText(ctx context.Context, revision, path string, contextLines int) (string, error)
	// RemoteURL identifies the repository by its origin remote.
	RemoteURL(ctx context.Context) (string, error)
}

// Channel submits relocation batches to a worker.
type Channel interface {
	Diff(ctx context.Context, batch domain.RelocationBatch) (domain.DiffResult, error)
}

// ThreadStore persists comment threads and their anchors.
type ThreadStore interface {
	SaveThread(ctx context.Context, thread domain.Thread) error
	GetThread(ctx context.Context, id string) (domain.Thread, error)
	ListThreads(ctx context.Context) ([]domain.Thread, error)
	ListThreadsByFile(ctx context.Context, path string) ([]domain.Thread, error)
	ResolveThread(ctx context.Context, id string) error
	DeleteThread(ctx context.Context, id string) error
	UpdateAnchorLocation(ctx context.Context, threadID string, current *domain.Range, at time.Time) error
}

// Logger records progress and diagnostics.
type Logger interface {
	LogDebug(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogError(ctx context.Context, message string, fields map[string]interface{})
}

// Anchor outcome statuses, as stored on reports.
const (
	StatusRelocated = "relocated"
	StatusUnchanged = "unchanged"
	StatusLost      = "lost"
)

// AnchorOutcome describes what one relocation pass did to a thread's anchor.
type AnchorOutcome struct {
	ThreadID string        `json:"threadId"`
	Author   string        `json:"author"`
	Body     string        `json:"body"`
	Revision string        `json:"revision"`
	Original domain.Range  `json:"original"`
	Current  *domain.Range `json:"current,omitempty"`
	Status   string        `json:"status"`
}

// Report summarizes one relocation pass over a file.
type Report struct {
	Path     string          `json:"path"`
	Head     string          `json:"head"`
	Repo     string          `json:"repo,omitempty"`
	Outcomes []AnchorOutcome `json:"outcomes"`
}

// CreateThreadInput carries the arguments for opening a thread.
type CreateThreadInput struct {
	Path     string
	Revision string // empty means the checked-out revision
	Range    domain.Range
	Author   string
	Body     string
}

// Explanation gathers the material behind a thread's current position: the
// diff separating its anchor revision from the working tree and the captured
// versus present text.
type Explanation struct {
	Thread  domain.Thread
	Patch   string
	Current string
}

// ServiceDeps wires the collaborators for the relocation service.
type ServiceDeps struct {
	Source  ContentSource
	Channel Channel
	Store   ThreadStore
	Logger  Logger
	Retry   RetryConfig
	Clock   func() time.Time
}

// Service relocates stored thread anchors against current file content and
// manages the thread lifecycle around them.
type Service struct {
	deps ServiceDeps
}

// NewService validates dependencies and constructs a Service.
func NewService(deps ServiceDeps) (*Service, error) {
	if err := validateDependencies(deps); err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Service{deps: deps}, nil
}

func validateDependencies(deps ServiceDeps) error {
	if deps.Source == nil {
		return fmt.Errorf("content source is required")
	}
	if deps.Channel == nil {
		return fmt.Errorf("worker channel is required")
	}
	if deps.Store == nil {
		return fmt.Errorf("thread store is required")
	}
	return nil
}

// RelocateFile moves every thread anchor on a file to its current position.
// Anchors whose revision is no longer reachable keep only the captured-text
// search; anchors whose content is gone entirely are marked lost. Updated
// positions are persisted before the report is returned.
func (s *Service) RelocateFile(ctx context.Context, path string) (Report, error) {
	head, err := s.deps.Source.Head(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("resolve head: %w", err)
	}

	threads, err := s.deps.Store.ListThreadsByFile(ctx, path)
	if err != nil {
		return Report{}, fmt.Errorf("list threads: %w", err)
	}

	report := Report{Path: path, Head: head}
	if remote, err := s.deps.Source.RemoteURL(ctx); err == nil {
		report.Repo = remote
	}
	if len(threads) == 0 {
		return report, nil
	}

	modified, err := s.deps.Source.CurrentFile(ctx, path)
	if err != nil {
		return Report{}, fmt.Errorf("read current content: %w", err)
	}

	batch := domain.RelocationBatch{ModifiedLines: modified}
	fetched := make(map[string]bool)
	for _, thread := range threads {
		revision := thread.Anchor.Revision
		if !fetched[revision] {
			fetched[revision] = true
			lines, err := s.deps.Source.FileAtRevision(ctx, revision, path)
			if err != nil {
				s.logWarning(ctx, "revision content unavailable, relying on captured text", map[string]interface{}{
					"revision": revision,
					"path":     path,
					"error":    err.Error(),
				})
			} else {
				batch.RevLines = append(batch.RevLines, domain.RevisionLines{Revision: revision, Lines: lines})
			}
		}
		batch.RevRanges = append(batch.RevRanges, domain.RevisionRange{
			Revision: revision,
			Range:    thread.Anchor.Range,
			Text:     thread.Anchor.CapturedText,
		})
	}

	var result domain.DiffResult
	call := func(ctx context.Context) error {
		var err error
		result, err = s.deps.Channel.Diff(ctx, batch)
		return err
	}
	if err := RetryWithBackoff(ctx, call, s.deps.Retry); err != nil {
		return Report{}, fmt.Errorf("worker batch: %w", err)
	}

	now := s.deps.Clock()
	for _, thread := range threads {
		current := result[thread.Anchor.Revision][thread.Anchor.Range.Key()]
		if err := s.deps.Store.UpdateAnchorLocation(ctx, thread.ID, current, now); err != nil {
			return Report{}, fmt.Errorf("persist anchor for thread %s: %w", thread.ID, err)
		}
		report.Outcomes = append(report.Outcomes, AnchorOutcome{
			ThreadID: thread.ID,
			Author:   thread.Author,
			Body:     thread.Body,
			Revision: thread.Anchor.Revision,
			Original: thread.Anchor.Range,
			Current:  current,
			Status:   outcomeStatus(thread.Anchor.Range, current),
		})
	}

	s.logInfo(ctx, "relocation pass complete", map[string]interface{}{
		"path":    path,
		"threads": len(threads),
	})
	return report, nil
}

// CreateThread captures the anchored text at the given revision and stores a
// new thread.
func (s *Service) CreateThread(ctx context.Context, input CreateThreadInput) (domain.Thread, error) {
	if input.Path == "" {
		return domain.Thread{}, fmt.Errorf("path is required")
	}
	if input.Body == "" {
		return domain.Thread{}, fmt.Errorf("comment body is required")
	}
	if !input.Range.IsValid() {
		return domain.Thread{}, fmt.Errorf("invalid range %s", input.Range.Key())
	}

	revision := input.Revision
	if revision == "" {
		revision = "HEAD"
	}
	resolved, err := s.deps.Source.ResolveRevision(ctx, revision)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	lines, err := s.deps.Source.FileAtRevision(ctx, resolved, input.Path)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("read %s at %s: %w", input.Path, resolved, err)
	}
	captured, err := domain.ExtractRange(lines, input.Range)
	if err != nil {
		return domain.Thread{}, err
	}

	thread := domain.NewThread(domain.ThreadInput{
		File:         input.Path,
		Author:       input.Author,
		Body:         input.Body,
		Revision:     resolved,
		Range:        input.Range,
		CapturedText: captured,
		CreatedAt:    s.deps.Clock(),
	})
	if err := s.deps.Store.SaveThread(ctx, thread); err != nil {
		return domain.Thread{}, fmt.Errorf("save thread: %w", err)
	}

	s.logInfo(ctx, "thread created", map[string]interface{}{
		"thread": thread.ID,
		"path":   input.Path,
		"range":  input.Range.Key(),
	})
	return thread, nil
}

// ListThreads returns stored threads, limited to one file when path is
// non-empty.
func (s *Service) ListThreads(ctx context.Context, path string) ([]domain.Thread, error) {
	if path == "" {
		return s.deps.Store.ListThreads(ctx)
	}
	return s.deps.Store.ListThreadsByFile(ctx, path)
}

// ResolveThread marks a thread resolved.
func (s *Service) ResolveThread(ctx context.Context, id string) error {
	return s.deps.Store.ResolveThread(ctx, id)
}

// DeleteThread removes a thread permanently.
func (s *Service) DeleteThread(ctx context.Context, id string) error {
	if err := s.deps.Store.DeleteThread(ctx, id); err != nil {
		return err
	}
	s.logInfo(ctx, "thread deleted", map[string]interface{}{"thread": id})
	return nil
}

// ExplainThread gathers the diff and text comparison behind a thread's
// current position.
func (s *Service) ExplainThread(ctx context.Context, id string) (Explanation, error) {
	thread, err := s.deps.Store.GetThread(ctx, id)
	if err != nil {
		return Explanation{}, err
	}

	patch, err := s.deps.Source.DiffText(ctx, thread.Anchor.Revision, thread.File, 3)
	if err != nil {
		return Explanation{}, fmt.Errorf("diff %s against working tree: %w", thread.Anchor.Revision, err)
	}

	explanation := Explanation{Thread: thread, Patch: patch}
	if thread.CurrentRange != nil {
		lines, err := s.deps.Source.CurrentFile(ctx, thread.File)
		if err == nil {
			if text, err := domain.ExtractRange(lines, *thread.CurrentRange); err == nil {
				explanation.Current = text
			}
		}
	}
	return explanation, nil
}

func outcomeStatus(original domain.Range, current *domain.Range) string {
	switch {
	case current == nil:
		return StatusLost
	case *current == original:
		return StatusUnchanged
	default:
		return StatusRelocated
	}
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (s *Service) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogWarning(ctx, message, fields)
	}
}
