package shutter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/internal/ports"
	"github.com/bft-labs/tetherbooth/pkg/lifecycle"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// Outcome reports one Fire call. Err is nil exactly when Fired is true.
type Outcome struct {
	// Fired is true when the capture key was sent.
	Fired bool

	// Window is the title that was activated, if any.
	Window string

	// Attempts is the number of whole-list attempts made.
	Attempts int

	// BreakerOpen is set when the call was rejected without trying because
	// of repeated earlier failures.
	BreakerOpen bool

	// Err describes the failure. It wraps domain.ErrActivation when no
	// window could be activated.
	Err error
}

// Trigger fires the remote-capture application's shutter.
type Trigger struct {
	activator ports.WindowActivator
	keys      ports.KeySender
	opts      options
	breaker   *gobreaker.CircuitBreaker
	limiter   *rate.Limiter
}

// New creates a Trigger.
func New(activator ports.WindowActivator, keys ports.KeySender, opts ...Option) *Trigger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t := &Trigger{activator: activator, keys: keys, opts: o}

	limit := rate.Inf
	if o.minInterval > 0 {
		limit = rate.Every(o.minInterval)
	}
	t.limiter = rate.NewLimiter(limit, 1)

	threshold := o.breakerThreshold
	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "shutter",
		MaxRequests: 1,
		Timeout:     o.breakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return threshold > 0 && c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.logger.Warn("Shutter breaker state changed",
				log.String("from", from.String()),
				log.String("to", to.String()),
			)
		},
	})
	return t
}

// Titles returns the candidate window titles in try order.
func (t *Trigger) Titles() []string {
	return append([]string(nil), t.opts.titles...)
}

type activation struct {
	title    string
	attempts int
}

// Fire activates a candidate window, sends the capture key and waits for the
// settle duration. No key is sent unless a window was activated.
func (t *Trigger) Fire(ctx context.Context) Outcome {
	// Pace before activating so the key follows the activation directly and
	// cannot land in a window that took focus while we waited.
	slot, err := t.pace(ctx)
	if err != nil {
		t.opts.metrics.Outcome("canceled")
		return Outcome{Err: err}
	}

	res, err := t.breaker.Execute(func() (interface{}, error) {
		return t.activate(ctx)
	})
	act, _ := res.(activation)
	if err != nil {
		slot.release(t.opts.clock.Now())
		out := Outcome{Attempts: act.attempts, Err: err}
		label := "activation_failed"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			out.BreakerOpen = true
			out.Err = fmt.Errorf("%w: %v", domain.ErrActivation, err)
			label = "breaker_open"
		case ctx.Err() != nil:
			label = "canceled"
		}
		t.opts.metrics.Outcome(label)
		t.opts.logger.Warn("Shutter not fired", log.Err(out.Err), log.Int("attempts", out.Attempts))
		return out
	}

	if err := t.keys.SendCaptureKey(ctx); err != nil {
		t.opts.metrics.Outcome("key_failed")
		t.opts.logger.Warn("Failed to send capture key", log.String("window", act.title), log.Err(err))
		return Outcome{Window: act.title, Attempts: act.attempts, Err: fmt.Errorf("send capture key: %w", err)}
	}

	t.opts.metrics.Outcome("fired")
	t.opts.logger.Info("Shutter fired", log.String("window", act.title), log.Int("attempts", act.attempts))

	// The key is out; an interrupted settle does not undo the shot.
	_ = t.wait(ctx, t.opts.settle)
	return Outcome{Fired: true, Window: act.title, Attempts: act.attempts}
}

// Check reports whether any candidate window can be activated, without
// sending a key.
func (t *Trigger) Check(ctx context.Context) (string, bool) {
	for _, title := range t.opts.titles {
		ok, err := t.activator.Activate(ctx, title)
		if err == nil && ok {
			return title, true
		}
	}
	return "", false
}

// BreakerState returns the circuit breaker state.
func (t *Trigger) BreakerState() gobreaker.State {
	return t.breaker.State()
}

func (t *Trigger) activate(ctx context.Context) (activation, error) {
	b := lifecycle.NewBackoff(t.opts.backoff, t.opts.maxBackoff, t.opts.clock)
	var lastErr error

	for attempt := 1; attempt <= t.opts.attempts; attempt++ {
		for _, title := range t.opts.titles {
			if err := ctx.Err(); err != nil {
				return activation{attempts: attempt}, err
			}
			ok, err := t.activator.Activate(ctx, title)
			if err != nil {
				lastErr = err
				t.opts.logger.Debug("Window activation failed", log.String("window", title), log.Err(err))
				continue
			}
			if ok {
				return activation{title: title, attempts: attempt}, nil
			}
		}
		if attempt < t.opts.attempts {
			if err := b.Wait(ctx); err != nil {
				return activation{attempts: attempt}, err
			}
		}
	}

	if lastErr != nil {
		return activation{attempts: t.opts.attempts}, fmt.Errorf("%w: %v", domain.ErrActivation, lastErr)
	}
	return activation{attempts: t.opts.attempts}, domain.ErrActivation
}

// paceSlot is a reserved keystroke slot. Releasing it gives the slot back
// when no key was sent.
type paceSlot struct {
	r *rate.Reservation
}

func (p paceSlot) release(now time.Time) {
	if p.r != nil {
		p.r.CancelAt(now)
	}
}

// pace blocks until the minimum interval since the previous keystroke has
// passed and reserves the next slot.
func (t *Trigger) pace(ctx context.Context) (paceSlot, error) {
	now := t.opts.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	if !r.OK() {
		return paceSlot{}, nil
	}
	delay := r.DelayFrom(now)
	if delay == rate.InfDuration {
		r.CancelAt(now)
		return paceSlot{}, nil
	}
	if err := t.wait(ctx, delay); err != nil {
		r.CancelAt(t.opts.clock.Now())
		return paceSlot{}, err
	}
	return paceSlot{r: r}, nil
}

func (t *Trigger) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := t.opts.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
