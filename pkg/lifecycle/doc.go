// Package lifecycle provides the booth's state machine and retry backoff.
//
// The manager tracks state transitions (Stopped, Starting, Running,
// Stopping, Crashed), coordinates background workers and bounds graceful
// shutdown. [Backoff] paces retries such as repeated window activation.
//
// # Usage
//
// Create a lifecycle manager:
//
//	manager := lifecycle.NewManager(logger, eventEmitter)
//
//	if !manager.CanStart() {
//	    return ErrAlreadyRunning
//	}
//
//	if err := manager.TransitionTo(lifecycle.StateStarting, "starting"); err != nil {
//	    return err
//	}
//
//	manager.Go(func() { runCleanup(ctx) })
//
//	// Graceful shutdown
//	if err := manager.WaitWithTimeout(30 * time.Second); err != nil {
//	    return ErrShutdownTimeout
//	}
//
// Retry with backoff:
//
//	b := lifecycle.NewBackoff(200*time.Millisecond, 2*time.Second, nil)
//	for attempt := 0; attempt < 3; attempt++ {
//	    if tryOnce() {
//	        break
//	    }
//	    if err := b.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Crashed
//   - Running -> Stopping, Crashed
//   - Stopping -> Stopped, Crashed
//   - Crashed -> Starting
//
// The same table backs [State.CanTransition]. A rejected transition wraps
// ErrNotRunning when starting from Stopped or Crashed and ErrAlreadyRunning
// otherwise.
package lifecycle
