package fetch

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"golang.org/x/time/rate"

	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

// Limiter enforces a minimum spacing between calls to one provider.
// A single Limiter is shared by every caller of that provider in the process.
type Limiter struct {
	name     string
	interval time.Duration
	lim      *rate.Limiter
	clk      clock.Clock
	sleep    func(ctx context.Context, d time.Duration) error
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithClock sets the clock used to timestamp reservations.
func WithClock(clk clock.Clock) LimiterOption {
	return func(l *Limiter) { l.clk = clk }
}

// WithSleeper replaces the function used to wait out a reservation.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) LimiterOption {
	return func(l *Limiter) { l.sleep = fn }
}

// NewLimiter allows one call per interval with no bursting.
func NewLimiter(name string, interval time.Duration, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		name:     name,
		interval: interval,
		lim:      rate.NewLimiter(rate.Every(interval), 1),
		clk:      clock.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sleep == nil {
		l.sleep = l.timerSleep
	}
	return l
}

// Name returns the provider the limiter guards.
func (l *Limiter) Name() string { return l.name }

// Interval returns the enforced spacing.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Wait blocks until the next slot is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	now := l.clk.Now()
	r := l.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)

	metrics.RateLimitWait.WithLabelValues(l.name).Observe(delay.Seconds())
	if delay <= 0 {
		return nil
	}

	if err := l.sleep(ctx, delay); err != nil {
		r.CancelAt(l.clk.Now())
		return err
	}
	return nil
}

func (l *Limiter) timerSleep(ctx context.Context, d time.Duration) error {
	t := l.clk.Timer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
