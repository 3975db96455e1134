package connector

import (
	"context"
	"time"
)

// backoff yields the pause before each retry: BaseDelay, then doubling,
// capped at MaxDelay when one is set.
type backoff struct {
	next time.Duration
	max  time.Duration
}

func newBackoff(cfg *RetryConfig) *backoff {
	b := &backoff{next: cfg.BaseDelay, max: cfg.MaxDelay}
	if b.next <= 0 {
		b.next = time.Second
	}
	return b
}

func (b *backoff) delay() time.Duration {
	d := b.next
	b.next *= 2
	if b.max > 0 && b.next > b.max {
		b.next = b.max
	}
	return d
}

// retryConnect calls connect up to MaxRetries times and returns the last
// error when every attempt fails. Cancelling ctx ends the wait early.
func retryConnect(ctx context.Context, cfg *RetryConfig, connect func(context.Context) (Connection, error)) (Connection, error) {
	attempts := max(cfg.MaxRetries, 1)
	b := newBackoff(cfg)

	var lastErr error
	for attempt := 1; ; attempt++ {
		conn, err := connect(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt == attempts {
			return nil, lastErr
		}

		timer := time.NewTimer(b.delay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
