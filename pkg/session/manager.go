package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/internal/ports"
	"github.com/bft-labs/tetherbooth/pkg/capture"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// Baseline is a watch-directory snapshot bound to one session generation.
type Baseline struct {
	capture.Baseline
	Generation uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for session timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(m *Manager) {
		m.logger = log.OrNoop(l)
	}
}

// WithOnAccepted registers a callback run after each photo is copied into
// the session. It runs on the capturing goroutine.
func WithOnAccepted(fn func(domain.CaptureSession, domain.CapturedPhoto)) Option {
	return func(m *Manager) {
		m.onAccepted = fn
	}
}

// Manager owns the active capture session.
type Manager struct {
	watcher    *capture.Watcher
	repo       ports.SessionRepository
	clock      clockwork.Clock
	logger     log.Logger
	onAccepted func(domain.CaptureSession, domain.CapturedPhoto)

	mu        sync.Mutex
	gen       uint64
	current   *domain.CaptureSession
	base      capture.Baseline
	imported  []string
	capturing bool
}

// NewManager creates a Manager that watches through w and stores sessions
// in repo.
func NewManager(w *capture.Watcher, repo ports.SessionRepository, opts ...Option) *Manager {
	m := &Manager{
		watcher: w,
		repo:    repo,
		clock:   clockwork.NewRealClock(),
		logger:  log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a new session collecting target photos. A session that is
// still collecting is closed first.
func (m *Manager) Start(ctx context.Context, target int) (domain.CaptureSession, error) {
	if target <= 0 {
		return domain.CaptureSession{}, fmt.Errorf("%w: target must be positive, got %d", domain.ErrInvalidConfig, target)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capturing {
		return domain.CaptureSession{}, domain.ErrSessionBusy
	}
	if m.current != nil && m.current.State == domain.SessionCollecting {
		m.closeLocked(ctx)
	}

	base, err := m.watcher.Snapshot()
	if err != nil {
		return domain.CaptureSession{}, fmt.Errorf("snapshot watch dir: %w", err)
	}

	id, dir, err := m.repo.Create(ctx)
	if err != nil {
		return domain.CaptureSession{}, err
	}

	m.gen++
	m.base = base
	m.imported = nil
	m.current = &domain.CaptureSession{
		ID:        id,
		Token:     uuid.NewString(),
		Dir:       dir,
		Target:    target,
		State:     domain.SessionCollecting,
		StartedAt: m.clock.Now(),
	}
	if err := m.repo.SaveManifest(ctx, *m.current); err != nil {
		m.logger.Warn("Failed to write session manifest", log.String("session", id), log.Err(err))
	}

	m.logger.Info("Session started",
		log.String("session", id),
		log.Int("target", target),
		log.Int("baseline", base.Len()),
	)
	return m.current.Clone(), nil
}

// Snapshot takes a fresh baseline for the active session.
func (m *Manager) Snapshot() (Baseline, error) {
	m.mu.Lock()
	gen := m.gen
	active := m.current != nil && m.current.State == domain.SessionCollecting
	m.mu.Unlock()

	if !active {
		return Baseline{}, domain.ErrNoSession
	}
	b, err := m.watcher.Snapshot()
	if err != nil {
		return Baseline{}, err
	}
	return Baseline{Baseline: b, Generation: gen}, nil
}

// Collect waits up to timeout for the remaining photos of the session,
// measured against the baseline taken at Start.
func (m *Manager) Collect(ctx context.Context, timeout time.Duration) (domain.CaptureSession, error) {
	m.mu.Lock()
	if m.current == nil || m.current.State != domain.SessionCollecting {
		m.mu.Unlock()
		return domain.CaptureSession{}, domain.ErrNoSession
	}
	b := Baseline{Baseline: m.base.With(m.imported...), Generation: m.gen}
	remaining := m.current.Remaining()
	m.mu.Unlock()

	res, err := m.watch(ctx, b, remaining, timeout)
	if err != nil {
		return domain.CaptureSession{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if res.TimedOut && m.current.Remaining() > 0 {
		m.finishLocked(ctx, domain.SessionTimedOut)
	} else if m.current.Remaining() == 0 {
		m.finishLocked(ctx, domain.SessionComplete)
	}
	return m.current.Clone(), nil
}

// WatchFrom waits for up to expected new files relative to b and imports
// each one as it is accepted. It fails with ErrStaleBaseline when b belongs
// to an earlier session.
func (m *Manager) WatchFrom(ctx context.Context, b Baseline, expected int, timeout time.Duration) (capture.Result, error) {
	return m.watch(ctx, b, expected, timeout)
}

func (m *Manager) watch(ctx context.Context, b Baseline, expected int, timeout time.Duration) (capture.Result, error) {
	m.mu.Lock()
	switch {
	case m.current == nil || m.current.State != domain.SessionCollecting:
		m.mu.Unlock()
		return capture.Result{}, domain.ErrNoSession
	case b.Generation != m.gen:
		m.mu.Unlock()
		return capture.Result{}, domain.ErrStaleBaseline
	case m.capturing:
		m.mu.Unlock()
		return capture.Result{}, domain.ErrSessionBusy
	}
	m.capturing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.capturing = false
		m.mu.Unlock()
	}()

	return m.watcher.WatchEach(ctx, b.Baseline, expected, timeout, func(f capture.File) error {
		return m.importFile(ctx, b.Generation, f)
	})
}

func (m *Manager) importFile(ctx context.Context, gen uint64, f capture.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.current == nil {
		return domain.ErrStaleBaseline
	}

	index := len(m.current.Photos)
	p, err := m.repo.Import(ctx, m.current.Dir, index, f.Path)
	if err != nil {
		return err
	}
	m.current.Photos = append(m.current.Photos, p)
	m.imported = append(m.imported, f.Name)

	if err := m.repo.SaveManifest(ctx, *m.current); err != nil {
		m.logger.Warn("Failed to write session manifest", log.String("session", m.current.ID), log.Err(err))
	}
	m.logger.Info("Photo added to session",
		log.String("session", m.current.ID),
		log.Int("index", index),
		log.String("file", f.Name),
	)
	if m.onAccepted != nil {
		m.onAccepted(m.current.Clone(), p)
	}
	return nil
}

// Current returns a snapshot of the most recent session.
func (m *Manager) Current() (domain.CaptureSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.CaptureSession{}, false
	}
	return m.current.Clone(), true
}

// Photos returns the session's photos in acceptance order.
func (m *Manager) Photos() []domain.CapturedPhoto {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return append([]domain.CapturedPhoto(nil), m.current.Photos...)
}

// Close finalizes the active session. It is Complete when the target was
// reached and TimedOut otherwise.
func (m *Manager) Close(ctx context.Context) (domain.CaptureSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.CaptureSession{}, domain.ErrNoSession
	}
	if m.capturing {
		return domain.CaptureSession{}, domain.ErrSessionBusy
	}
	if m.current.State == domain.SessionCollecting {
		m.closeLocked(ctx)
	}
	return m.current.Clone(), nil
}

func (m *Manager) closeLocked(ctx context.Context) {
	state := domain.SessionTimedOut
	if m.current.Remaining() == 0 {
		state = domain.SessionComplete
	}
	m.finishLocked(ctx, state)
}

func (m *Manager) finishLocked(ctx context.Context, state domain.SessionState) {
	if m.current.State != domain.SessionCollecting {
		return
	}
	m.current.State = state
	m.current.ClosedAt = m.clock.Now()
	m.gen++
	if err := m.repo.SaveManifest(ctx, *m.current); err != nil {
		m.logger.Warn("Failed to write session manifest", log.String("session", m.current.ID), log.Err(err))
	}
	m.logger.Info("Session closed",
		log.String("session", m.current.ID),
		log.String("state", state.String()),
		log.Int("photos", len(m.current.Photos)),
	)
}

// PadSelection fills a short selection up to n entries by cyclic reuse.
// An empty selection stays empty.
func PadSelection(photos []string, n int) []string {
	if len(photos) == 0 || n <= 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = photos[i%len(photos)]
	}
	return out
}
