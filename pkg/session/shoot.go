package session

import (
	"context"
	"errors"
	"time"

	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/pkg/log"
	"github.com/bft-labs/tetherbooth/pkg/shutter"
)

// Shutter fires the remote camera. *shutter.Trigger implements it.
type Shutter interface {
	Fire(ctx context.Context) shutter.Outcome
}

// Shot is the result of one trigger-and-wait cycle.
type Shot struct {
	// Photo is set when a file was accepted.
	Photo *domain.CapturedPhoto

	// Outcome is the trigger result.
	Outcome shutter.Outcome

	// TimedOut is set when the trigger fired but no file stabilized within
	// the capture window.
	TimedOut bool
}

// CaptureOne fires trig and waits up to window for one new file. When the
// trigger fails and manual is false it returns without waiting. With manual
// set it still waits, so a shot taken with the camera's own button counts.
func (m *Manager) CaptureOne(ctx context.Context, trig Shutter, window time.Duration, manual bool) (Shot, error) {
	b, err := m.Snapshot()
	if err != nil {
		return Shot{}, err
	}

	var shot Shot
	if trig != nil {
		shot.Outcome = trig.Fire(ctx)
		if !shot.Outcome.Fired && !manual {
			return shot, nil
		}
	}

	res, err := m.WatchFrom(ctx, b, 1, window)
	if err != nil {
		return shot, err
	}
	if len(res.Files) == 0 {
		shot.TimedOut = res.TimedOut
		return shot, nil
	}

	photos := m.Photos()
	for i := len(photos) - 1; i >= 0; i-- {
		if photos[i].SourcePath == res.Files[0].Path {
			p := photos[i]
			shot.Photo = &p
			break
		}
	}
	return shot, nil
}

// ShootPlan configures Shoot.
type ShootPlan struct {
	// Trigger fires each shot. A nil Trigger waits for manual shots only.
	Trigger Shutter

	// PerShot is the capture window after each trigger.
	PerShot time.Duration

	// Deadline bounds the whole run.
	Deadline time.Duration

	// Interval is a pause before each shot, e.g. for a countdown.
	Interval time.Duration

	// ManualFallback keeps waiting for a file when the trigger fails.
	ManualFallback bool
}

// ShootReport summarizes a Shoot run.
type ShootReport struct {
	Session  domain.CaptureSession
	Shots    []Shot
	TimedOut bool
}

// Shoot repeats CaptureOne until the session target is reached or the
// deadline passes, then closes the session.
func (m *Manager) Shoot(ctx context.Context, plan ShootPlan) (ShootReport, error) {
	var report ShootReport
	deadline := m.clock.Now().Add(plan.Deadline)

	for {
		s, ok := m.Current()
		if !ok || s.State != domain.SessionCollecting {
			return report, domain.ErrNoSession
		}
		if s.Remaining() == 0 {
			break
		}

		left := deadline.Sub(m.clock.Now())
		if left <= 0 {
			report.TimedOut = true
			break
		}
		if plan.Interval > 0 {
			if err := m.sleep(ctx, plan.Interval); err != nil {
				report.TimedOut = true
				break
			}
			left = deadline.Sub(m.clock.Now())
		}

		window := plan.PerShot
		if window <= 0 || window > left {
			window = left
		}

		shot, err := m.CaptureOne(ctx, plan.Trigger, window, plan.ManualFallback || plan.Trigger == nil)
		if err != nil {
			return report, err
		}
		report.Shots = append(report.Shots, shot)

		if shot.Photo == nil {
			m.logger.Warn("Shot produced no photo",
				log.Bool("fired", shot.Outcome.Fired),
				log.Bool("timed_out", shot.TimedOut),
				log.Err(shot.Outcome.Err),
			)
			if errors.Is(shot.Outcome.Err, context.Canceled) || ctx.Err() != nil {
				report.TimedOut = true
				break
			}
			if shot.Outcome.Err != nil && !plan.ManualFallback && plan.Trigger != nil {
				if err := m.sleep(ctx, minDuration(window, left)); err != nil {
					report.TimedOut = true
					break
				}
			}
		}
	}

	closed, err := m.Close(ctx)
	if err != nil {
		return report, err
	}
	report.Session = closed
	return report, nil
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) error {
	timer := m.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
