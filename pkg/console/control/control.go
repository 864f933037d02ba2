// Package control implements the game lifecycle state machine:
// Idle to Playing on start, Playing and Paused toggling on pause and
// resume, Playing or Paused to Ended on end, and any state back to
// Idle on reset. Pause time is tracked so effective game time can be
// reported without it.
package control

import (
	"errors"
	"time"

	"github.com/othellokit/console.go/pkg/game"
	"github.com/othellokit/console.go/pkg/keypad"
	"github.com/othellokit/console.go/pkg/proto/msgs"
)

// State of the lifecycle machine.
type State byte

// Lifecycle states.
const (
	Idle State = iota
	Playing
	Paused
	Ended
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	case Ended:
		return "ENDED"
	}
	return "UNKNOWN"
}

// Errors reported by actions.
var (
	// ErrInvalidState rejects an action not legal in the current state.
	ErrInvalidState = errors.New("action not allowed in current state")
	// ErrInvalidAction rejects an unknown action code.
	ErrInvalidAction = errors.New("unknown control action")
)

// Keypad bindings for lifecycle actions.
const (
	KeyStart  = keypad.Key1
	KeyPause  = keypad.KeyStar
	KeyResume = keypad.KeyHash
	KeyEnd    = keypad.KeyD
	KeyReset  = keypad.Key0
)

// Machine drives the game lifecycle over a game.State it does not own.
type Machine struct {
	// Clock provides timestamps. Defaults to time.Now.
	Clock func() time.Time

	state      State
	prevState  State
	enteredAt  time.Time
	pauseStart time.Time
	totalPause time.Duration
}

// NewMachine creates a Machine in the Idle state.
func NewMachine() *Machine {
	m := &Machine{Clock: time.Now}
	m.enteredAt = m.Clock()
	return m
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// PrevState returns the state before the last transition.
func (m *Machine) PrevState() State { return m.prevState }

// TimeInState returns how long the machine has been in the current state.
func (m *Machine) TimeInState() time.Duration {
	return m.Clock().Sub(m.enteredAt)
}

// Start begins a new game. Legal from Idle or Ended.
func (m *Machine) Start(st *game.State) error {
	if m.state != Idle && m.state != Ended {
		return ErrInvalidState
	}
	st.Reset()
	m.totalPause = 0
	m.pauseStart = time.Time{}
	m.enter(Playing)
	return nil
}

// Pause suspends a running game.
func (m *Machine) Pause() error {
	if m.state != Playing {
		return ErrInvalidState
	}
	m.pauseStart = m.Clock()
	m.enter(Paused)
	return nil
}

// Resume continues a paused game.
func (m *Machine) Resume() error {
	if m.state != Paused {
		return ErrInvalidState
	}
	m.totalPause += m.Clock().Sub(m.pauseStart)
	m.pauseStart = time.Time{}
	m.enter(Playing)
	return nil
}

// End terminates the game in progress. A game still being played is
// concluded from the piece counts on the board.
func (m *Machine) End(st *game.State) error {
	if m.state != Playing && m.state != Paused {
		return ErrInvalidState
	}
	if m.state == Paused {
		m.totalPause += m.Clock().Sub(m.pauseStart)
		m.pauseStart = time.Time{}
	}
	st.Conclude()
	m.enter(Ended)
	return nil
}

// Reset returns to Idle from any state and resets the board.
func (m *Machine) Reset(st *game.State) error {
	st.Reset()
	m.totalPause = 0
	m.pauseStart = time.Time{}
	m.enter(Idle)
	return nil
}

// HandleAction dispatches a wire action code.
func (m *Machine) HandleAction(action byte, st *game.State) error {
	switch action {
	case msgs.ActionStart:
		return m.Start(st)
	case msgs.ActionPause:
		return m.Pause()
	case msgs.ActionResume:
		return m.Resume()
	case msgs.ActionEnd:
		return m.End(st)
	case msgs.ActionReset:
		return m.Reset(st)
	}
	return ErrInvalidAction
}

// HandleKey dispatches a lifecycle key. It reports whether the key is
// a lifecycle binding so other handlers can skip it, even when the
// action was not legal in the current state.
func (m *Machine) HandleKey(key byte, st *game.State) (handled bool, err error) {
	switch key {
	case KeyStart:
		return true, m.Start(st)
	case KeyPause:
		return true, m.Pause()
	case KeyResume:
		return true, m.Resume()
	case KeyEnd:
		return true, m.End(st)
	case KeyReset:
		return true, m.Reset(st)
	}
	return false, nil
}

// ActionValid reports whether an action code would succeed now.
func (m *Machine) ActionValid(action byte) bool {
	switch action {
	case msgs.ActionStart:
		return m.state == Idle || m.state == Ended
	case msgs.ActionPause:
		return m.state == Playing
	case msgs.ActionResume:
		return m.state == Paused
	case msgs.ActionEnd:
		return m.state == Playing || m.state == Paused
	case msgs.ActionReset:
		return true
	}
	return false
}

// TotalPauseTime returns the accumulated pause time, including the
// current pause when the machine is paused.
func (m *Machine) TotalPauseTime() time.Duration {
	total := m.totalPause
	if m.state == Paused {
		total += m.Clock().Sub(m.pauseStart)
	}
	return total
}

// EffectiveGameTime returns game duration with pause time excluded.
func (m *Machine) EffectiveGameTime(st *game.State) time.Duration {
	d := st.Duration() - m.TotalPauseTime()
	if d < 0 {
		return 0
	}
	return d
}

func (m *Machine) enter(s State) {
	m.prevState = m.state
	m.state = s
	m.enteredAt = m.Clock()
}
