// Package retry runs an operation again with exponential backoff between attempts.
package retry

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jpillora/backoff"
)

// Policy describes how many times to try and how long to wait in between.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultPolicy returns 3 attempts starting at 500ms, doubling up to 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    5 * time.Second,
	}
}

// Delay returns the wait before retry number attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	b := &backoff.Backoff{
		Min:    p.BaseDelay,
		Max:    p.MaxDelay,
		Factor: p.Multiplier,
	}
	return b.ForAttempt(float64(attempt))
}

// Do calls op until it succeeds, returns an error retryable rejects, or the
// attempts run out. A nil retryable retries every error. Cancelling ctx stops
// the wait between attempts and returns ctx.Err().
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		wait := p.Delay(i)
		log.Printf("[WARN] attempt %d/%d failed: %v, retrying in %v", i+1, attempts, lastErr, wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", attempts, lastErr)
}
