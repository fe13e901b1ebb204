package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// Common lifecycle errors.
var (
	ErrNotRunning      = domain.ErrNotRunning
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
)

// ShutdownTimeout is the default maximum time to wait for graceful shutdown.
// A capture in progress can hold a worker for a full capture window.
const ShutdownTimeout = 30 * time.Second

// DefaultManager guards the booth state machine and tracks in-flight
// operations so Stop can drain them.
type DefaultManager struct {
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       log.Logger
	eventEmitter EventEmitter
	clock        clockwork.Clock
}

// NewManager creates a new lifecycle manager. The emitter may be nil.
func NewManager(logger log.Logger, emitter EventEmitter) *DefaultManager {
	return &DefaultManager{
		state:        StateStopped,
		logger:       log.OrNoop(logger),
		eventEmitter: emitter,
		clock:        clockwork.NewRealClock(),
	}
}

// SetClock replaces the clock used for shutdown timeouts.
func (l *DefaultManager) SetClock(c clockwork.Clock) {
	if c != nil {
		l.clock = c
	}
}

func (l *DefaultManager) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to newState if the transition table allows it. The
// emitter is notified after the lock is released.
func (l *DefaultManager) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state
	if !oldState.CanTransition(newState) {
		l.mu.Unlock()
		return transitionError(oldState, newState)
	}
	l.state = newState
	l.mu.Unlock()

	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}
	l.logger.Info("Booth state changed",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)
	return nil
}

// CanStart reports whether a new run may begin.
func (l *DefaultManager) CanStart() bool {
	return l.State().idle()
}

// CanStop reports whether there is a run to stop.
func (l *DefaultManager) CanStop() bool {
	return l.State().CanTransition(StateStopping)
}

// SetCancel stores the cancel function for graceful shutdown.
func (l *DefaultManager) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel triggers graceful shutdown.
func (l *DefaultManager) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker registers an operation that Stop must wait for. Pair every call
// with WorkerDone.
func (l *DefaultManager) AddWorker() { l.wg.Add(1) }

// WorkerDone marks an AddWorker operation finished.
func (l *DefaultManager) WorkerDone() { l.wg.Done() }

// Go runs fn on a tracked worker goroutine.
func (l *DefaultManager) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// WaitWithTimeout blocks until every worker is done or timeout passes on the
// manager's clock, in which case it returns ErrShutdownTimeout. Workers still
// running after a timeout are abandoned, not killed.
func (l *DefaultManager) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-l.clock.After(timeout):
		l.logger.Warn("Workers still busy at shutdown",
			log.Duration("timeout", timeout),
		)
		return ErrShutdownTimeout
	}
}
