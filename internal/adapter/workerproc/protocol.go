// Package workerproc runs relocation batches in an isolated worker process.
// Client spawns the worker and speaks a framed request/response protocol
// over its standard streams; Serve is the worker-side loop.
//
// Every frame is a msgpack document behind a 4-byte big-endian length
// prefix. A request names an operation and carries its arguments; the
// response echoes the request ID with either a result or an error.
package workerproc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/anchorlab/reanchor/internal/domain"
)

// OpDiff is the single operation the worker protocol exposes.
const OpDiff = "diff"

// maxFrameBytes bounds a single encoded message.
const maxFrameBytes = 64 << 20

// Wire error type tags.
const (
	wireErrWorker   = "worker"
	wireErrProtocol = "protocol"
)

// Request is one framed command sent to the worker process.
type Request struct {
	ID   uint64                 `msgpack:"id"`
	Op   string                 `msgpack:"op"`
	Args domain.RelocationBatch `msgpack:"args"`
}

// Response carries the result or error for one request.
type Response struct {
	ID     uint64            `msgpack:"id"`
	Result domain.DiffResult `msgpack:"result,omitempty"`
	Err    *WireError        `msgpack:"error,omitempty"`
}

// WireError is a worker failure in transportable form.
type WireError struct {
	Type    string `msgpack:"type"`
	Message string `msgpack:"message"`
}

func (e *WireError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// writeFrame encodes v with msgpack behind a length prefix.
func writeFrame(w io.Writer, v interface{}) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if len(payload) > maxFrameBytes {
		return fmt.Errorf("frame of %d bytes exceeds limit", len(payload))
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// readFrame decodes the next length-prefixed message into v. It returns
// io.EOF untouched when the stream ends cleanly before a header.
func readFrame(r io.Reader, v interface{}) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("read frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameBytes {
		return fmt.Errorf("frame of %d bytes exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("read frame payload: %w", err)
	}
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}
