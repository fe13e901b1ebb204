package lifecycle

import "fmt"

// State is a position in the booth lifecycle.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// MarshalText lets states appear by name in JSON status payloads and logs.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

// CanTransition reports whether next is reachable from s in one step.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// idle reports whether no run is in progress.
func (s State) idle() bool {
	return s == StateStopped || s == StateCrashed
}

// transitionError describes a rejected transition. From an idle state the
// booth is not running; from any other state it already is.
func transitionError(from, to State) error {
	sentinel := ErrAlreadyRunning
	if from.idle() {
		sentinel = ErrNotRunning
	}
	return fmt.Errorf("%w: cannot go from %s to %s", sentinel, from, to)
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}
