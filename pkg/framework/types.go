package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Phase identifies a stage of one loop iteration. Every iteration
// runs the phases in declaration order.
type Phase int

// Loop phases.
const (
	// PhaseSense samples inputs (keypad scan, link bytes).
	PhaseSense Phase = iota
	// PhaseControl runs the game and protocol logic.
	PhaseControl
	// PhaseActuate pushes outputs (display, outbound frames).
	PhaseActuate
	// PhaseMaintain runs housekeeping (timeouts, heartbeats).
	PhaseMaintain

	PhaseCount
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseSense:
		return "sense"
	case PhaseControl:
		return "control"
	case PhaseActuate:
		return "actuate"
	case PhaseMaintain:
		return "maintain"
	}
	return "unknown"
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// TickContext provides the context of the current loop iteration.
type TickContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Phase gets the phase being executed.
	Phase() Phase
	// Wake schedules the next iteration to run immediately after
	// the current one instead of waiting for the tick interval.
	Wake()
}

// Task is one unit of work executed every iteration.
type Task interface {
	Tick(TickContext) error
}

// TickFunc is the func form of Task.
type TickFunc func(TickContext) error

// Tick implements Task.
func (f TickFunc) Tick(tc TickContext) error {
	return f(tc)
}
