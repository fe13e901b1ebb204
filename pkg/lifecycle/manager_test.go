package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestState_CanTransitionAndMarshal(t *testing.T) {
	assert.True(t, StateRunning.CanTransition(StateStopping))
	assert.False(t, StateRunning.CanTransition(StateStopped))
	assert.False(t, State(99).CanTransition(StateStarting))

	b, err := StateCrashed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Crashed", string(b))
}

func TestManager_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"stopped to starting", StateStopped, StateStarting},
		{"starting to running", StateStarting, StateRunning},
		{"starting to stopping", StateStarting, StateStopping},
		{"starting to crashed", StateStarting, StateCrashed},
		{"running to stopping", StateRunning, StateStopping},
		{"running to crashed", StateRunning, StateCrashed},
		{"stopping to stopped", StateStopping, StateStopped},
		{"stopping to crashed", StateStopping, StateCrashed},
		{"crashed to starting", StateCrashed, StateStarting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil, nil)
			m.state = tt.from

			require.NoError(t, m.TransitionTo(tt.to, "test"))
			assert.Equal(t, tt.to, m.State())
		})
	}
}

func TestManager_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"stopped to running", StateStopped, StateRunning, ErrNotRunning},
		{"stopped to stopping", StateStopped, StateStopping, ErrNotRunning},
		{"running to starting", StateRunning, StateStarting, ErrAlreadyRunning},
		{"stopping to running", StateStopping, StateRunning, ErrAlreadyRunning},
		{"crashed to running", StateCrashed, StateRunning, ErrNotRunning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil, nil)
			m.state = tt.from

			err := m.TransitionTo(tt.to, "test")
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.from, m.State())
		})
	}
}

func TestManager_EmitsEvents(t *testing.T) {
	em := &mockEmitter{}
	m := NewManager(nil, em)

	require.NoError(t, m.TransitionTo(StateStarting, "start"))
	require.NoError(t, m.TransitionTo(StateRunning, "ready"))

	events := em.Events()
	require.Len(t, events, 2)
	assert.Equal(t, stateChangeEvent{StateStopped, StateStarting, "start"}, events[0])
	assert.Equal(t, stateChangeEvent{StateStarting, StateRunning, "ready"}, events[1])
}

func TestManager_CanStartCanStop(t *testing.T) {
	m := NewManager(nil, nil)
	assert.True(t, m.CanStart())
	assert.False(t, m.CanStop())

	m.state = StateRunning
	assert.False(t, m.CanStart())
	assert.True(t, m.CanStop())

	m.state = StateCrashed
	assert.True(t, m.CanStart())
}

func TestManager_WaitWithTimeout(t *testing.T) {
	m := NewManager(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	m.SetCancel(cancel)
	m.Go(func() { <-ctx.Done() })

	m.Cancel()
	assert.NoError(t, m.WaitWithTimeout(time.Second))
}

func TestManager_WaitWithTimeout_Expires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewManager(nil, nil)
	m.SetClock(clock)

	release := make(chan struct{})
	defer close(release)
	m.Go(func() { <-release })

	errc := make(chan error, 1)
	go func() { errc <- m.WaitWithTimeout(5 * time.Second) }()

	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)

	assert.ErrorIs(t, <-errc, ErrShutdownTimeout)
}
