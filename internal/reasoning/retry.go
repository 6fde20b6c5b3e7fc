package reasoning

import (
	"context"
	"time"

	"github.com/yungbote/examiner-backend/internal/pkg/httpx"
)

// RetryPolicy bounds provider retries. The n-th retry waits
// min(BaseDelay * 2^(n-1), MaxDelay), optionally jittered.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
	Retryable   func(error) bool
	Sleep       func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   4 * time.Second,
		MaxDelay:    10 * time.Second,
		Jitter:      true,
		Retryable:   httpx.IsRetryableError,
	}
}

// NoRetry makes exactly one attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Delay returns the wait before retry number n (1-based), without jitter.
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn until it succeeds, fails with a non-retryable error, or attempts
// run out. onRetry is called before each wait. The last error is returned
// together with the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error, onRetry func(attempt int, wait time.Duration, err error)) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = httpx.IsRetryableError
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return attempt, nil
		}
		if attempt == attempts || !retryable(err) || ctx.Err() != nil {
			return attempt, err
		}
		wait := p.Delay(attempt)
		if p.Jitter {
			wait = httpx.Jitter(wait)
		}
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return attempt, err
		}
	}
	return attempts, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
