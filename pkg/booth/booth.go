package booth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bft-labs/tetherbooth/internal/adapters/fs"
	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/internal/metrics"
	"github.com/bft-labs/tetherbooth/pkg/capture"
	"github.com/bft-labs/tetherbooth/pkg/compose"
	"github.com/bft-labs/tetherbooth/pkg/filter"
	"github.com/bft-labs/tetherbooth/pkg/layout"
	"github.com/bft-labs/tetherbooth/pkg/lifecycle"
	"github.com/bft-labs/tetherbooth/pkg/log"
	"github.com/bft-labs/tetherbooth/pkg/session"
	"github.com/bft-labs/tetherbooth/pkg/shutter"
)

// Booth wires the capture, session, trigger and print pipeline together.
// Use New() to create an instance, then Start() before running sessions.
type Booth struct {
	config    Config
	opts      options
	lifecycle *lifecycle.DefaultManager
	emitter   *eventEmitter
	logger    log.Logger

	registry   *layout.Registry
	watcher    *capture.Watcher
	store      *fs.SessionStore
	results    *fs.ResultStore
	sessions   *session.Manager
	trigger    *shutter.Trigger
	compositor *compose.Compositor
	filters    *filter.Engine
	mirror     *compose.MirrorCache

	// Cleanup runner (config-based)
	cleanup *cleanupRunner

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// Selection describes one print to produce from captured photos.
type Selection struct {
	// Photos are the chosen photos in slot order. When empty, the photos of
	// the most recent session are used.
	Photos []string

	LayoutKey string
	FramePath string
	Mirror    bool

	// Filter names a filter.Engine filter. Empty or "original" keeps the
	// composite as is.
	Filter string
}

// Print is the output of Finalize.
type Print struct {
	Composite domain.CompositeResult

	// Path is the file to print: the filtered variant when a filter was
	// applied, the composite otherwise.
	Path   string
	Filter string

	// Halves holds the left and right strips of a half-cut print.
	Halves []string
}

// New creates a new Booth with the given configuration.
// The instance is created in StateStopped; call Start() before use.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Booth, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	registry := o.registry
	if registry == nil {
		r, err := layout.LoadFile(cfg.LayoutsFile)
		if err != nil {
			return nil, err
		}
		registry = r
	}

	capM, trigM, compM := splitMetrics(o.metrics)
	emitter := &eventEmitter{handler: o.eventHandler}

	lc := lifecycle.NewManager(logger, emitter)
	lc.SetClock(o.clock)

	watcher := capture.New(cfg.WatchDir,
		capture.WithPollInterval(cfg.PollInterval),
		capture.WithSettleDelay(cfg.SettleDelay),
		capture.WithExtensions(cfg.Extensions...),
		capture.WithClock(o.clock),
		capture.WithLogger(log.With(logger, log.String("component", "capture"))),
		capture.WithMetrics(capM),
	)
	store := fs.NewSessionStore(cfg.SessionsDir, o.clock)
	results := fs.NewResultStore(cfg.ResultsDir, o.clock)

	sessions := session.NewManager(watcher, store,
		session.WithClock(o.clock),
		session.WithLogger(log.With(logger, log.String("component", "session"))),
		session.WithOnAccepted(emitter.photoAccepted),
	)

	var trig *shutter.Trigger
	if cfg.Trigger.Enabled {
		trig = newTrigger(cfg.Trigger, o, trigM)
	}

	mirror := compose.NewMirrorCache(cfg.MirrorDir,
		compose.WithMirrorClock(o.clock),
		compose.WithMirrorLogger(log.With(logger, log.String("component", "mirror"))),
		compose.WithMirrorMetrics(compM),
	)
	compositor := compose.New(registry, results,
		compose.WithQuality(cfg.Quality),
		compose.WithPlaceholder(cfg.Placeholder),
		compose.WithMirrorCache(mirror),
		compose.WithClock(o.clock),
		compose.WithLogger(log.With(logger, log.String("component", "compose"))),
		compose.WithMetrics(compM),
	)
	filters := filter.New(
		filter.WithQuality(cfg.Quality),
		filter.WithLogger(log.With(logger, log.String("component", "filter"))),
		filter.WithMetrics(compM),
	)

	var cleanup *cleanupRunner
	if cfg.Cleanup.Enabled {
		cleanup = newCleanupRunner(cfg.Cleanup, mirror, o.clock, logger)
	}

	return &Booth{
		config:     cfg,
		opts:       o,
		lifecycle:  lc,
		emitter:    emitter,
		logger:     logger,
		registry:   registry,
		watcher:    watcher,
		store:      store,
		results:    results,
		sessions:   sessions,
		trigger:    trig,
		compositor: compositor,
		filters:    filters,
		mirror:     mirror,
		cleanup:    cleanup,
	}, nil
}

func newTrigger(tc TriggerConfig, o options, m *metrics.TriggerMetrics) *shutter.Trigger {
	activator := o.activator
	if activator == nil {
		if len(tc.ActivateCommand) > 0 {
			activator = &shutter.CommandActivator{Args: tc.ActivateCommand}
		} else {
			activator = shutter.NewXdotoolActivator()
		}
	}
	keys := o.keys
	if keys == nil {
		if len(tc.KeyCommand) > 0 {
			keys = &shutter.CommandKeySender{Args: tc.KeyCommand}
		} else {
			keys = shutter.NewXdotoolKeySender()
		}
	}

	return shutter.New(activator, keys,
		shutter.WithTitles(tc.Titles...),
		shutter.WithAttempts(tc.Attempts),
		shutter.WithBackoff(tc.Backoff, tc.MaxBackoff),
		shutter.WithSettle(tc.Settle),
		shutter.WithMinInterval(tc.MinInterval),
		shutter.WithBreaker(tc.BreakerThreshold, tc.BreakerTimeout),
		shutter.WithClock(o.clock),
		shutter.WithLogger(log.With(o.logger, log.String("component", "shutter"))),
		shutter.WithMetrics(m),
	)
}

func splitMetrics(s *metrics.Set) (*metrics.CaptureMetrics, *metrics.TriggerMetrics, *metrics.ComposeMetrics) {
	if s == nil {
		return nil, nil, nil
	}
	return s.Capture, s.Trigger, s.Compose
}

// Start prepares the output directories and starts the background cleanup
// runner. The provided context bounds every session run by the booth.
func (b *Booth) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	if err := b.lifecycle.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		return err
	}

	for _, dir := range []string{b.config.SessionsDir, b.config.ResultsDir, b.config.MirrorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = b.lifecycle.TransitionTo(lifecycle.StateCrashed, "create directories failed")
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.ctx = runCtx
	b.cancel = cancel
	b.lifecycle.SetCancel(cancel)

	if b.cleanup != nil {
		b.cleanup.start(runCtx)
	}
	if b.trigger == nil {
		b.logger.Info("Remote trigger disabled, waiting for manual shots")
	}

	return b.lifecycle.TransitionTo(lifecycle.StateRunning, "booth ready")
}

// Stop cancels running sessions and waits for them to finish.
// Waits up to lifecycle.ShutdownTimeout before giving up.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (b *Booth) Stop() error {
	b.mu.Lock()

	if !b.lifecycle.CanStop() {
		b.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := b.lifecycle.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		b.mu.Unlock()
		return err
	}

	if b.cancel != nil {
		b.cancel()
	}

	b.mu.Unlock()

	err := b.lifecycle.WaitWithTimeout(lifecycle.ShutdownTimeout)

	if b.cleanup != nil {
		b.cleanup.stop()
	}

	if s, ok := b.sessions.Current(); ok && s.State == domain.SessionCollecting {
		if _, closeErr := b.sessions.Close(context.Background()); closeErr != nil {
			b.logger.Warn("Failed to close session on shutdown", log.String("session", s.ID), log.Err(closeErr))
		}
	}

	if err != nil {
		_ = b.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown timeout")
	} else {
		_ = b.lifecycle.TransitionTo(lifecycle.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (b *Booth) Status() State {
	return b.lifecycle.State()
}

// acquire registers a worker for the duration of one operation. The
// returned context is canceled by Stop.
func (b *Booth) acquire(ctx context.Context) (context.Context, func(), error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.lifecycle.State() != lifecycle.StateRunning {
		return nil, nil, domain.ErrNotRunning
	}

	b.lifecycle.AddWorker()
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(b.ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
		b.lifecycle.WorkerDone()
	}, nil
}

// RunSession starts a session of target photos (Config.Target when zero or
// negative), shoots until it is full or the deadline passes, and returns the
// closed session with a per-shot report.
func (b *Booth) RunSession(ctx context.Context, target int) (session.ShootReport, error) {
	opCtx, release, err := b.acquire(ctx)
	if err != nil {
		return session.ShootReport{}, err
	}
	defer release()

	if target <= 0 {
		target = b.config.Target
	}
	s, err := b.sessions.Start(opCtx, target)
	if err != nil {
		return session.ShootReport{}, err
	}

	// A nil *shutter.Trigger must stay a nil interface.
	var trig session.Shutter
	if b.trigger != nil {
		trig = b.trigger
	}

	report, err := b.sessions.Shoot(opCtx, session.ShootPlan{
		Trigger:        trig,
		PerShot:        b.config.PerShot,
		Deadline:       b.config.Deadline,
		Interval:       b.config.Interval,
		ManualFallback: b.config.ManualFallback,
	})
	if err != nil {
		return report, fmt.Errorf("session %s: %w", s.ID, err)
	}

	b.logger.Info("Session finished",
		log.String("session", report.Session.ID),
		log.String("state", report.Session.State.String()),
		log.Int("photos", len(report.Session.Photos)),
		log.Int("shots", len(report.Shots)),
	)
	return report, nil
}

// Finalize composes sel, applies its filter and, for half-cut layouts,
// splits the result into strips. A failing filter keeps the unfiltered
// print.
func (b *Booth) Finalize(ctx context.Context, sel Selection) (Print, error) {
	opCtx, release, err := b.acquire(ctx)
	if err != nil {
		return Print{}, err
	}
	defer release()

	photos := sel.Photos
	if len(photos) == 0 {
		for _, p := range b.sessions.Photos() {
			photos = append(photos, p.SessionPath)
		}
	}

	res, err := b.compositor.Compose(opCtx, domain.CompositionRequest{
		Photos:    photos,
		LayoutKey: sel.LayoutKey,
		FramePath: sel.FramePath,
		Mirror:    sel.Mirror,
	})
	if err != nil {
		return Print{}, err
	}

	p := Print{Composite: res, Path: res.Path}
	if b.filters.Known(sel.Filter) && sel.Filter != filter.Original {
		out, ferr := b.filters.Apply(opCtx, res.Path, sel.Filter)
		if ferr != nil {
			b.logger.Warn("Filter failed, printing unfiltered", log.String("filter", sel.Filter), log.Err(ferr))
		} else {
			p.Path = out
			p.Filter = sel.Filter
		}
	}

	if compose.IsHalfCut(res.LayoutKey) {
		left, right, serr := b.compositor.SplitHalves(opCtx, p.Path)
		if serr != nil {
			return p, fmt.Errorf("split half-cut print: %w", serr)
		}
		p.Halves = []string{left, right}
	}

	b.emitter.composed(p)
	return p, nil
}

// CleanupMirror runs one mirror-cache retention pass with the configured
// policy. It does not require the booth to be running.
func (b *Booth) CleanupMirror(ctx context.Context) (compose.CleanupStats, error) {
	return b.mirror.Cleanup(ctx, b.config.Cleanup)
}

// Config returns the effective configuration.
func (b *Booth) Config() Config { return b.config }

// Registry returns the layout registry.
func (b *Booth) Registry() *layout.Registry { return b.registry }

// Sessions returns the session manager.
func (b *Booth) Sessions() *session.Manager { return b.sessions }

// Trigger returns the shutter trigger, or nil when triggering is disabled.
func (b *Booth) Trigger() *shutter.Trigger { return b.trigger }

// Filters returns the filter engine.
func (b *Booth) Filters() *filter.Engine { return b.filters }

// Compositor returns the compositor.
func (b *Booth) Compositor() *compose.Compositor { return b.compositor }

// Watcher returns the capture watcher.
func (b *Booth) Watcher() *capture.Watcher { return b.watcher }

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"capture":   {capture.Version, capture.MinCompatibleVersion},
		"session":   {session.Version, session.MinCompatibleVersion},
		"shutter":   {shutter.Version, shutter.MinCompatibleVersion},
		"layout":    {layout.Version, layout.MinCompatibleVersion},
		"compose":   {compose.Version, compose.MinCompatibleVersion},
		"filter":    {filter.Version, filter.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
	}

	var errs []error
	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			errs = append(errs, fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion))
		}
	}
	return errors.Join(errs...)
}

// isVersionCompatible checks if version >= minVersion.
// Versions have the form "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
