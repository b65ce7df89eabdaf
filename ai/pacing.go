package ai

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer throttles calls to an upstream embedding service. Pace blocks until
// the caller may proceed, or returns the context's error if it is cancelled
// while waiting.
type Pacer interface {
	Pace(ctx context.Context) error
}

// NopPacer never blocks.
type NopPacer struct{}

func (NopPacer) Pace(ctx context.Context) error {
	return ctx.Err()
}

// CountPacer pauses for a fixed duration every nth call. This matches the
// batch-friendly shape of local embedding servers: full speed within a batch,
// a breather between batches.
//
// CountPacer is safe for concurrent use.
type CountPacer struct {
	every int
	pause time.Duration

	mu    sync.Mutex
	count int
}

// NewCountPacer creates a pacer that sleeps for pause on every nth call.
func NewCountPacer(every int, pause time.Duration) *CountPacer {
	return &CountPacer{every: every, pause: pause}
}

// Pace counts the call and sleeps when the count reaches the interval.
func (p *CountPacer) Pace(ctx context.Context) error {
	if p.every <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	p.count++
	sleep := p.count%p.every == 0
	p.mu.Unlock()

	if !sleep {
		return ctx.Err()
	}

	timer := time.NewTimer(p.pause)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RatePacer throttles with a token bucket. Useful against hosted embedding
// APIs with hard requests-per-second quotas.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer creates a pacer allowing rps requests per second with the
// given burst.
func NewRatePacer(rps float64, burst int) *RatePacer {
	return &RatePacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Pace waits for a token.
func (p *RatePacer) Pace(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
