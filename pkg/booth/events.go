package booth

import (
	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/pkg/lifecycle"
)

// State is the lifecycle state of a Booth.
type State = lifecycle.State

// Lifecycle states.
const (
	StateStopped  = lifecycle.StateStopped
	StateStarting = lifecycle.StateStarting
	StateRunning  = lifecycle.StateRunning
	StateStopping = lifecycle.StateStopping
	StateCrashed  = lifecycle.StateCrashed
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// PhotoAcceptedEvent is emitted when a photo is copied into a session.
type PhotoAcceptedEvent struct {
	SessionID string
	Photo     domain.CapturedPhoto
	Remaining int
}

// ComposedEvent is emitted when Finalize stores a print.
type ComposedEvent struct {
	Print Print
}

// EventHandler receives booth events. Callbacks run synchronously on the
// goroutine doing the work and should return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnPhotoAccepted(PhotoAcceptedEvent)
	OnComposed(ComposedEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)     {}
func (BaseEventHandler) OnPhotoAccepted(PhotoAcceptedEvent) {}
func (BaseEventHandler) OnComposed(ComposedEvent)           {}

// eventEmitter adapts an EventHandler to the lifecycle emitter.
type eventEmitter struct {
	handler EventHandler
}

func (e *eventEmitter) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{Previous: previous, Current: current, Reason: reason})
}

func (e *eventEmitter) photoAccepted(s domain.CaptureSession, p domain.CapturedPhoto) {
	if e.handler == nil {
		return
	}
	e.handler.OnPhotoAccepted(PhotoAcceptedEvent{SessionID: s.ID, Photo: p, Remaining: s.Remaining()})
}

func (e *eventEmitter) composed(p Print) {
	if e.handler == nil {
		return
	}
	e.handler.OnComposed(ComposedEvent{Print: p})
}
