package scrape

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum delay between successive requests using a
// token bucket with no bursting. A nil Pacer or a zero delay means no
// pacing.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer that allows one request per delay interval.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next request is allowed.
// Returns an error if the context is canceled before the wait completes.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
