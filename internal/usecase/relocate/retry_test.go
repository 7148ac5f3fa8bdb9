package relocate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorlab/reanchor/internal/usecase/relocate"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := relocate.DefaultRetryConfig()

	assert.Equal(t, 2, config.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, config.InitialBackoff)
	assert.Equal(t, 2*time.Second, config.MaxBackoff)
	assert.Equal(t, 2.0, config.Multiplier)
}

func TestExponentialBackoff(t *testing.T) {
	config := relocate.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     400 * time.Millisecond,
		Multiplier:     2.0,
	}

	tests := []struct {
		name    string
		attempt int
		minWait time.Duration
		maxWait time.Duration
	}{
		{"attempt 0", 0, 75 * time.Millisecond, 125 * time.Millisecond},
		{"attempt 1", 1, 150 * time.Millisecond, 250 * time.Millisecond},
		{"attempt 2 capped", 2, 300 * time.Millisecond, 500 * time.Millisecond},
		{"attempt 5 capped", 5, 300 * time.Millisecond, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				backoff := relocate.ExponentialBackoff(tt.attempt, config)
				assert.GreaterOrEqual(t, backoff, tt.minWait, "backoff too short")
				assert.LessOrEqual(t, backoff, tt.maxWait, "backoff too long")
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, relocate.ShouldRetry(relocate.NewTransportError("pipe", errors.New("eof"))))
	assert.False(t, relocate.ShouldRetry(relocate.NewProtocolError("bad frame")))
	assert.False(t, relocate.ShouldRetry(relocate.NewWorkerError("failed", nil)))
	assert.False(t, relocate.ShouldRetry(errors.New("plain error")))
}

func TestRetryWithBackoffSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return relocate.NewTransportError("flaky", nil)
		}
		return nil
	}

	config := relocate.RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond, Multiplier: 2.0}
	err := relocate.RetryWithBackoff(context.Background(), operation, config)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return relocate.NewTransportError("always down", nil)
	}

	config := relocate.RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Multiplier: 2.0}
	err := relocate.RetryWithBackoff(context.Background(), operation, config)

	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	var channelErr *relocate.Error
	require.True(t, errors.As(err, &channelErr))
	assert.Equal(t, relocate.ErrTypeTransport, channelErr.Type)
}

func TestRetryWithBackoffStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return relocate.NewProtocolError("corrupt frame")
	}

	err := relocate.RetryWithBackoff(context.Background(), operation, relocate.DefaultRetryConfig())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	operation := func(ctx context.Context) error {
		return relocate.NewTransportError("never reached", nil)
	}

	err := relocate.RetryWithBackoff(ctx, operation, relocate.DefaultRetryConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorIsMatchesByType(t *testing.T) {
	err := relocate.NewTransportError("spawn failed", errors.New("fork"))

	assert.True(t, errors.Is(err, &relocate.Error{Type: relocate.ErrTypeTransport}))
	assert.False(t, errors.Is(err, &relocate.Error{Type: relocate.ErrTypeWorker}))
}

func TestErrorUnwrap(t *testing.T) {
	underlying := errors.New("broken pipe")
	err := relocate.NewTransportError("write frame", underlying)

	assert.ErrorIs(t, err, underlying)
}
