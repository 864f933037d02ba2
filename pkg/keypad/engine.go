package keypad

import (
	"errors"
	"time"
)

// Defaults and limits.
const (
	DefaultDebounceTime  = 10 * time.Millisecond
	DefaultLongPressTime = time.Second
	DefaultScanInterval  = 5 * time.Millisecond

	// StableSamples is the number of consecutive agreeing samples a
	// raw reading must hold before the elapsed-time gate is consulted.
	StableSamples = 3

	// QueueSize bounds the event queue. The queue is lossy: a full
	// queue drops its oldest event to admit the newest.
	QueueSize = 16

	MaxDebounceTime  = time.Second
	MinLongPressTime = 100 * time.Millisecond
	MaxLongPressTime = 10 * time.Second
)

// ErrBadConfig indicates a tuning value outside its allowed range.
var ErrBadConfig = errors.New("config out of range")

// State is the debounced state of one key.
type State byte

// Key states.
const (
	Released    State = 0
	Pressed     State = 1
	LongPressed State = 2
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Released:
		return "released"
	case Pressed:
		return "pressed"
	case LongPressed:
		return "long-pressed"
	}
	return "unknown"
}

// Matrix reads the raw switch state of the key grid.
type Matrix interface {
	// Pressed reports whether the switch at row, col is down.
	Pressed(row, col int) bool
}

// MatrixFunc is the func form of Matrix.
type MatrixFunc func(row, col int) bool

// Pressed implements Matrix.
func (f MatrixFunc) Pressed(row, col int) bool {
	return f(row, col)
}

// Event is one debounced key transition.
type Event struct {
	Row   byte
	Col   byte
	State State
	Key   byte // logical key code
	Time  time.Time
}

// NoEvent is returned by GetKey when the queue is empty.
var NoEvent = Event{Key: NoKey}

// Listener is notified of key transitions as they are confirmed.
type Listener interface {
	KeyChanged(ev Event)
}

// KeyChangedFunc is the func form of Listener.
type KeyChangedFunc func(Event)

// KeyChanged implements Listener.
func (f KeyChangedFunc) KeyChanged(ev Event) {
	f(ev)
}

// Stats counts scan activity since the last reset.
type Stats struct {
	Scans   uint32
	Events  uint32
	Dropped uint32
}

type key struct {
	state     State
	lastRaw   bool
	stable    int
	since     time.Time // last raw flip
	pressedAt time.Time
}

// Engine debounces a matrix keypad into an event queue.
// Not safe for concurrent use; drive it from a single scan loop.
type Engine struct {
	Matrix   Matrix
	Listener Listener
	Clock    func() time.Time

	debounce  time.Duration
	longPress time.Duration

	keys  [Rows][Cols]key
	queue [QueueSize]Event
	tail  int
	count int

	scans   uint32
	events  uint32
	dropped uint32
}

// NewEngine creates an Engine with default tuning.
func NewEngine(m Matrix) *Engine {
	return &Engine{
		Matrix:    m,
		Clock:     time.Now,
		debounce:  DefaultDebounceTime,
		longPress: DefaultLongPressTime,
	}
}

// SetDebounceTime tunes the elapsed-time debounce gate.
func (e *Engine) SetDebounceTime(d time.Duration) error {
	if d < 0 || d > MaxDebounceTime {
		return ErrBadConfig
	}
	e.debounce = d
	return nil
}

// SetLongPressTime tunes the long-press threshold.
func (e *Engine) SetLongPressTime(d time.Duration) error {
	if d < MinLongPressTime || d > MaxLongPressTime {
		return ErrBadConfig
	}
	e.longPress = d
	return nil
}

// DebounceTime reports the current debounce gate.
func (e *Engine) DebounceTime() time.Duration { return e.debounce }

// LongPressTime reports the current long-press threshold.
func (e *Engine) LongPressTime() time.Duration { return e.longPress }

// Scan samples every key once and confirms pending transitions.
// Call it on a fixed cadence, DefaultScanInterval apart.
func (e *Engine) Scan() {
	now := e.Clock()
	e.scans++
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			e.sample(row, col, e.Matrix.Pressed(row, col), now)
		}
	}
}

func (e *Engine) sample(row, col int, raw bool, now time.Time) {
	k := &e.keys[row][col]
	if raw != k.lastRaw {
		k.lastRaw = raw
		k.stable = 1
		k.since = now
	} else {
		k.stable++
	}

	confirmed := k.stable >= StableSamples && now.Sub(k.since) >= e.debounce
	switch {
	case raw && k.state == Released && confirmed:
		k.state = Pressed
		k.pressedAt = now
		e.emit(row, col, Pressed, now)
	case !raw && k.state != Released && confirmed:
		k.state = Released
		e.emit(row, col, Released, now)
	case raw && k.state == Pressed && now.Sub(k.pressedAt) >= e.longPress:
		// one-shot: LongPressed holds until release
		k.state = LongPressed
		e.emit(row, col, LongPressed, now)
	}
}

func (e *Engine) emit(row, col int, state State, now time.Time) {
	ev := Event{
		Row:   byte(row),
		Col:   byte(col),
		State: state,
		Key:   Logical(row, col),
		Time:  now,
	}
	if e.count >= QueueSize {
		e.tail = (e.tail + 1) % QueueSize
		e.count--
		e.dropped++
	}
	e.queue[(e.tail+e.count)%QueueSize] = ev
	e.count++
	e.events++
	if e.Listener != nil {
		e.Listener.KeyChanged(ev)
	}
}

// GetKey pops the oldest queued event, NoEvent if none is pending.
func (e *Engine) GetKey() Event {
	if e.count == 0 {
		return NoEvent
	}
	ev := e.queue[e.tail]
	e.tail = (e.tail + 1) % QueueSize
	e.count--
	return ev
}

// Pending reports the number of queued events.
func (e *Engine) Pending() int { return e.count }

// KeyState reports the debounced state of one key.
func (e *Engine) KeyState(row, col int) State {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return Released
	}
	return e.keys[row][col].state
}

// AnyKeyDown reports whether any key is currently held.
func (e *Engine) AnyKeyDown() bool {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if e.keys[row][col].state != Released {
				return true
			}
		}
	}
	return false
}

// Stats snapshots the scan counters.
func (e *Engine) Stats() Stats {
	return Stats{Scans: e.scans, Events: e.events, Dropped: e.dropped}
}

// ResetStats zeroes the scan counters.
func (e *Engine) ResetStats() {
	e.scans, e.events, e.dropped = 0, 0, 0
}
