package workerproc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/anchorlab/reanchor/internal/domain"
	"github.com/anchorlab/reanchor/internal/usecase/relocate"
)

// ClientDeps configures a worker process client.
type ClientDeps struct {
	// Command is the worker executable. Empty means the current binary.
	Command string
	// Args are the arguments passed to the command. Empty means ["worker"].
	Args   []string
	Logger relocate.Logger
}

// Client implements the worker channel by launching a worker process per
// batch. One process handles one request and exits, so a crashed or wedged
// worker never outlives its batch.
type Client struct {
	command string
	args    []string
	logger  relocate.Logger
	nextID  atomic.Uint64
}

// NewClient constructs a Client, resolving the current executable when no
// command is configured.
func NewClient(deps ClientDeps) (*Client, error) {
	command := deps.Command
	if command == "" {
		executable, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve worker executable: %w", err)
		}
		command = executable
	}

	args := deps.Args
	if len(args) == 0 {
		args = []string{"worker"}
	}

	return &Client{command: command, args: args, logger: deps.Logger}, nil
}

// Diff runs one relocation batch through a fresh worker process.
func (c *Client) Diff(ctx context.Context, batch domain.RelocationBatch) (domain.DiffResult, error) {
	cmd := exec.CommandContext(ctx, c.command, c.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, relocate.NewTransportError("open worker stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, relocate.NewTransportError("open worker stdout", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, relocate.NewTransportError("start worker", err)
	}

	if c.logger != nil {
		c.logger.LogDebug(ctx, "worker started", map[string]interface{}{
			"command": c.command,
			"pid":     cmd.Process.Pid,
		})
	}

	id := c.nextID.Add(1)
	request := Request{ID: id, Op: OpDiff, Args: batch}
	if err := writeFrame(stdin, request); err != nil {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, relocate.NewTransportError("send batch", err)
	}
	if err := stdin.Close(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, relocate.NewTransportError("close worker stdin", err)
	}

	var response Response
	readErr := readFrame(stdout, &response)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, relocate.NewCanceledError(ctx.Err())
	}
	if readErr != nil {
		return nil, relocate.NewTransportError(describeFailure("read response", stderr.String()), readErr)
	}
	if waitErr != nil {
		return nil, relocate.NewTransportError(describeFailure("worker exited", stderr.String()), waitErr)
	}

	if response.ID != id {
		return nil, relocate.NewProtocolError(fmt.Sprintf("response ID %d does not match request %d", response.ID, id))
	}
	if response.Err != nil {
		if response.Err.Type == wireErrProtocol {
			return nil, relocate.NewProtocolError(response.Err.Message)
		}
		return nil, relocate.NewWorkerError("batch failed", response.Err)
	}
	return response.Result, nil
}

// describeFailure folds captured worker stderr into a failure message.
func describeFailure(action, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return action
	}
	return fmt.Sprintf("%s (worker stderr: %s)", action, stderr)
}
