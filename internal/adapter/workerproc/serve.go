package workerproc

import (
	"context"
	"fmt"
	"io"

	"github.com/anchorlab/reanchor/internal/usecase/relocate"
)

// Serve reads framed requests from in until EOF, dispatching each batch to
// the worker and writing one response per request to out. It is the entry
// point of the worker process, with in and out wired to its standard
// streams.
func Serve(ctx context.Context, in io.Reader, out io.Writer, worker *relocate.Worker, logger relocate.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var request Request
		if err := readFrame(in, &request); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		response := Response{ID: request.ID}
		switch request.Op {
		case OpDiff:
			result, err := worker.Process(ctx, request.Args)
			switch {
			case result == nil && err != nil:
				response.Err = &WireError{Type: wireErrWorker, Message: err.Error()}
			case err != nil:
				// Failures confined to single revisions already show up
				// as lost ranges in the result.
				if logger != nil {
					logger.LogWarning(ctx, "batch finished with revision errors", map[string]interface{}{
						"error": err.Error(),
					})
				}
				response.Result = result
			default:
				response.Result = result
			}
		default:
			response.Err = &WireError{Type: wireErrProtocol, Message: fmt.Sprintf("unknown operation %q", request.Op)}
		}

		if err := writeFrame(out, response); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}
