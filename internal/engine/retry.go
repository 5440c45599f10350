package engine

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rendis/stepflow/pkg/schema"
)

const (
	// DefaultBackoffBase is the delay before the first retry.
	DefaultBackoffBase = time.Second

	// MaxBackoffDelay caps the exponential growth between attempts.
	MaxBackoffDelay = 30 * time.Second
)

// IsRetryableError classifies whether a failed attempt should be retried.
// Timeouts and transient invocation failures are retryable; cancellation,
// unknown tools, and malformed input are not.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Deadline exceeded means the attempt timed out, not that the run is over.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Cancellation means the run is shutting down.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var flowErr *schema.FlowError
	if errors.As(err, &flowErr) {
		return flowErr.IsRetryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"temporary failure",
		"i/o timeout",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
		"too many requests",
	}
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	// Default: retryable. The retry budget limits the damage.
	return true
}

// ComputeBackoff returns the delay before the next attempt after the given
// failed attempt (1-based): base * 2^(attempt-1), capped at MaxBackoffDelay.
func ComputeBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= MaxBackoffDelay {
			return MaxBackoffDelay
		}
	}
	if delay > MaxBackoffDelay {
		delay = MaxBackoffDelay
	}
	return delay
}

// WaitForBackoff sleeps for the given delay or returns early with the
// context error if the run is cancelled during the wait.
func WaitForBackoff(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
