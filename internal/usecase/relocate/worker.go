package relocate

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/anchorlab/reanchor/internal/diff"
	"github.com/anchorlab/reanchor/internal/domain"
	"github.com/anchorlab/reanchor/internal/locate"
)

// WorkerDeps configures a batch worker.
type WorkerDeps struct {
	// Workers caps how many revisions are diffed concurrently.
	Workers int
	Logger  Logger
}

// Worker relocates batches of ranges. Each distinct revision in a batch gets
// one diff and one transformer, shared by every range anchored at that
// revision. Ranges the transformer cannot place fall back to a content
// search when captured text was supplied.
type Worker struct {
	workers int
	logger  Logger
}

// NewWorker constructs a Worker.
func NewWorker(deps WorkerDeps) *Worker {
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	return &Worker{workers: workers, logger: deps.Logger}
}

// Process relocates every range in the batch against its current content.
// Independent revisions run concurrently. A failure confined to one
// revision marks its ranges as lost and is reported alongside the result;
// cancellation aborts the whole batch.
func (w *Worker) Process(ctx context.Context, batch domain.RelocationBatch) (domain.DiffResult, error) {
	linesByRevision := make(map[string][]string, len(batch.RevLines))
	for _, rl := range batch.RevLines {
		linesByRevision[rl.Revision] = rl.Lines
	}

	var revisions []string
	requests := make(map[string][]domain.RevisionRange)
	for _, rr := range batch.RevRanges {
		if _, seen := requests[rr.Revision]; !seen {
			revisions = append(revisions, rr.Revision)
		}
		requests[rr.Revision] = append(requests[rr.Revision], rr)
	}

	outcomes := make([]domain.RevisionResult, len(revisions))
	failures := make([]error, len(revisions))

	g, gctx := errgroup.WithContext(ctx)
	limit := min(w.workers, len(revisions))
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, revision := range revisions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			lines, hasContent := linesByRevision[revision]
			result, err := w.processRevision(revision, lines, hasContent, requests[revision], batch.ModifiedLines)
			if err != nil {
				failures[i] = fmt.Errorf("revision %s: %w", revision, err)
				outcomes[i] = lostAll(requests[revision])
				return nil
			}
			outcomes[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(domain.DiffResult, len(revisions))
	for i, revision := range revisions {
		result[revision] = outcomes[i]
	}

	if w.logger != nil {
		w.logger.LogDebug(ctx, "batch processed", map[string]interface{}{
			"revisions": len(revisions),
			"ranges":    len(batch.RevRanges),
		})
	}
	return result, errors.Join(failures...)
}

// processRevision relocates all ranges anchored at one revision. Without
// content for the revision, the captured-text search is the only option.
func (w *Worker) processRevision(revision string, original []string, hasContent bool, ranges []domain.RevisionRange, modified []string) (domain.RevisionResult, error) {
	result := make(domain.RevisionResult, len(ranges))

	if !hasContent {
		for _, rr := range ranges {
			result[rr.Range.Key()] = searchFallback(rr, modified)
		}
		return result, nil
	}

	patch, err := diff.Unified(original, modified, 0)
	if err != nil {
		return nil, fmt.Errorf("compute diff: %w", err)
	}
	parsed, err := diff.Parse(patch)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	transformer := diff.NewTransformer(parsed, original)

	for _, rr := range ranges {
		mapped := transformer.Transform(rr.Range)
		if mapped == nil {
			mapped = searchFallback(rr, modified)
		}
		result[rr.Range.Key()] = mapped
	}
	return result, nil
}

// searchFallback locates a range by its captured text, or records it lost.
func searchFallback(rr domain.RevisionRange, modified []string) *domain.Range {
	if rr.Text == "" {
		return nil
	}
	return locate.Find(rr.Text, modified)
}

func lostAll(ranges []domain.RevisionRange) domain.RevisionResult {
	result := make(domain.RevisionResult, len(ranges))
	for _, rr := range ranges {
		result[rr.Range.Key()] = nil
	}
	return result
}
