package retry

import (
	"context"
	"fmt"
	"time"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // double the delay after each failed attempt
}

// Do runs fn until it succeeds, attempts run out, or ctx is cancelled.
// A non-positive MaxAttempts still runs fn once; returning nil without
// calling fn would look like success to the caller.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	delay := cfg.Delay
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if attempt == attempts {
			return fmt.Errorf("failed after %d attempts: %w", attempts, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if cfg.Backoff {
			delay *= 2
		}
	}

	return nil
}
