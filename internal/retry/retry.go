// Package retry runs idempotent operations with capped exponential backoff.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Class tells Do whether an error is worth another attempt.
type Class int

const (
	Retryable Class = iota
	Fatal
)

// Policy configures Do. Zero fields take the defaults noted below.
type Policy struct {
	MaxAttempts int           // default 1
	BaseDelay   time.Duration // default 200ms
	MaxDelay    time.Duration // default 5s
	Jitter      time.Duration

	// Classify decides whether an error is retryable. Nil retries every error.
	Classify func(error) Class

	// OnRetry is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

// Backoff returns the wait before attempt+1, doubling from BaseDelay and
// capped at MaxDelay, plus up to Jitter.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	wait := p.MaxDelay
	if attempt < 32 {
		if d := p.BaseDelay << (attempt - 1); d > 0 && d < p.MaxDelay {
			wait = d
		}
	}
	if p.Jitter > 0 {
		wait += rand.N(p.Jitter)
	}
	return wait
}

// Do calls fn until it succeeds, returns a Fatal error, the attempts run out
// or ctx is done. The last error from fn is returned.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	p = p.withDefaults()

	var err error
	for attempt := 1; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if p.Classify != nil && p.Classify(err) == Fatal {
			return err
		}
		if attempt >= p.MaxAttempts {
			return err
		}

		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if serr := Sleep(ctx, wait); serr != nil {
			return serr
		}
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
