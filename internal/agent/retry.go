package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	maxRetries    = 3
	baseDelay     = 2 * time.Second
	maxDelay      = 30 * time.Second
	jitterPercent = 30 // ±30% jitter
)

// isRetryableError checks if an error is worth retrying (rate limit, server error, network).
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// Context cancelled is never retryable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := err.Error()
	retryableFragments := []string{
		// Rate limit (429) and Anthropic overloaded (529)
		"429", "rate limit", "rate_limit", "529", "overloaded",
		// Server errors
		"500", "502", "503", "504",
		// Network errors
		"connection refused", "connection reset", "timeout", "EOF", "temporary failure",
	}
	for _, f := range retryableFragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// retryDelay returns the delay for attempt n (0-indexed) with jitter.
func retryDelay(attempt int) time.Duration {
	delay := baseDelay
	for range attempt {
		delay *= 2
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	// Add jitter: ±jitterPercent%
	jitter := time.Duration(rand.IntN(int(delay)*jitterPercent*2/100)) - time.Duration(int(delay)*jitterPercent/100)
	return delay + jitter
}

// sleepWithContext sleeps for d, but returns early if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// formatRetryMessage creates a user-friendly retry message.
func formatRetryMessage(attempt, maxAttempts int, delay time.Duration, err error) string {
	msg := err.Error()
	if len(msg) > 80 {
		msg = msg[:80] + "..."
	}
	return fmt.Sprintf("Retrying (%d/%d) in %s... (%s)",
		attempt+1, maxAttempts, delay.Round(time.Millisecond), msg)
}
