package reasoning

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Pool caps concurrent provider calls and, optionally, their start rate.
// A nil Pool imposes no limits.
type Pool struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

func NewPool(maxInFlight int, perSecond float64) *Pool {
	p := &Pool{}
	if maxInFlight > 0 {
		p.sem = semaphore.NewWeighted(int64(maxInFlight))
	}
	if perSecond > 0 {
		burst := maxInFlight
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return p
}

func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p == nil {
		return fn(ctx)
	}
	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer p.sem.Release(1)
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return fn(ctx)
}
