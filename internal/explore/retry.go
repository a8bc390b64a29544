package explore

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"sofilmy/internal/domain"
)

const (
	retryAttempts     = 3
	retryInitialDelay = 300 * time.Millisecond
	retryMaxDelay     = 2 * time.Second
)

// retryTransient retries fn with exponential backoff and jitter. Only
// transient network failures are retried; anything else (bad input,
// missing credential, upstream 4xx) returns immediately.
func retryTransient(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := retryInitialDelay

	for attempt := 0; attempt < retryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) || attempt == retryAttempts-1 {
			return lastErr
		}

		// jitter in [0.75, 1.25) to avoid synchronized retries
		jittered := time.Duration(float64(delay) * (0.75 + rand.Float64()*0.5))
		if jittered > retryMaxDelay {
			jittered = retryMaxDelay
		}
		timer := time.NewTimer(jittered)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrMissingCredential) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "connection refused")
}
