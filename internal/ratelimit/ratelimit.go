// Package ratelimit wraps golang.org/x/time/rate for node RPC call pacing.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outbound calls.
type Limiter struct {
	limiter *rate.Limiter
}

// PerMinute returns a limiter allowing n calls per minute, with a burst
// of a tenth of that (minimum 1).
func PerMinute(n int) *Limiter {
	burst := n / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(n)/60.0), burst),
	}
}

// PerSecond returns a limiter allowing n calls per second with the given burst.
func PerSecond(n float64, burst int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(n), burst)}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed now without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Tokens returns the number of tokens currently available.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}

// SetPerMinute updates the sustained rate.
func (l *Limiter) SetPerMinute(n int) {
	l.limiter.SetLimit(rate.Limit(float64(n) / 60.0))
}
