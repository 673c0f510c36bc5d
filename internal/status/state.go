package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/hangouts/internal/dispatch"
)

// State represents the connectivity of the push channel.
type State string

const (
	Booting      State = "BOOTING"
	Connecting   State = "CONNECTING"
	Connected    State = "CONNECTED"
	Disconnected State = "DISCONNECTED"
	Error        State = "ERROR"
)

// validTransitions defines allowed state transitions. No state lists itself,
// so a repeated connect callback cannot produce a second CONNECTED edge.
var validTransitions = map[State][]State{
	Booting:      {Connecting, Disconnected, Error},
	Connecting:   {Connected, Disconnected, Error},
	Connected:    {Disconnected, Error},
	Disconnected: {Connecting, Connected, Error},
	Error:        {Booting, Connecting},
}

// Machine tracks and enforces connectivity state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	sink    dispatch.Sink
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(sink dispatch.Sink) *Machine {
	return &Machine{
		current: Booting,
		sink:    sink,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Connected reports whether the push channel is currently up.
func (m *Machine) Connected() bool {
	return m.Current() == Connected
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	if m.sink != nil {
		m.sink.Dispatch(dispatch.StatusChanged, StatusChange{From: from, To: to})
	}
	return nil
}

// StatusChange is the payload of connection.status_changed actions.
type StatusChange struct {
	From State `json:"from"`
	To   State `json:"to"`
}

// Reconnected reports whether the change is an edge into CONNECTED.
func (c StatusChange) Reconnected() bool {
	return c.To == Connected && c.From != Connected
}
