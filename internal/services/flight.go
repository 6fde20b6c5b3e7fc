package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// joinFlight runs fn once for concurrent callers sharing key. fn runs on a
// context detached from the caller that started it and bounded by timeout,
// so one caller going away does not fail the others. Each caller stops
// waiting when its own ctx ends; the flight keeps running.
func joinFlight[T any](ctx context.Context, g *singleflight.Group, key string, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T
	ch := g.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case <-ctx.Done():
		return zero, false, fmt.Errorf("stopped waiting for shared work: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Shared, r.Err
		}
		return r.Val.(T), r.Shared, nil
	}
}
