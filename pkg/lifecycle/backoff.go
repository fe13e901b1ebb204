package lifecycle

import (
	"context"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
)

// Backoff implements exponential backoff with ±20% jitter.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
	clock   clockwork.Clock
}

// NewBackoff creates a new backoff with the given initial and max durations.
// A nil clock selects the real clock.
func NewBackoff(initial, max time.Duration, clock clockwork.Clock) *Backoff {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if max < initial {
		max = initial
	}
	return &Backoff{
		initial: initial,
		max:     max,
		current: initial,
		clock:   clock,
	}
}

// Next returns the jittered current duration and doubles it for next time.
func (b *Backoff) Next() time.Duration {
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Wait sleeps for Next() or until ctx is done, whichever comes first.
func (b *Backoff) Wait(ctx context.Context) error {
	d := b.Next()
	if d <= 0 {
		return ctx.Err()
	}
	timer := b.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// Reset resets the backoff to the initial duration.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Current returns the current backoff duration.
func (b *Backoff) Current() time.Duration {
	return b.current
}
