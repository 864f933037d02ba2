package proto

import "time"

// DefaultTimeout bounds the idle gap inside an unfinished frame.
const DefaultTimeout = time.Second

// Handler consumes completed frames.
type Handler interface {
	// HandleFrame is invoked synchronously for every valid frame.
	// The data slice is reused and must not be retained after return.
	HandleFrame(cmd Command, data []byte)
}

// HandlerFunc is the func form of Handler.
type HandlerFunc func(Command, []byte)

// HandleFrame implements Handler.
func (f HandlerFunc) HandleFrame(cmd Command, data []byte) {
	f(cmd, data)
}

// Stats counts protocol activity since the last reset.
type Stats struct {
	Sent           uint32
	Received       uint32
	ChecksumErrors uint32
	TimeoutErrors  uint32
	// BufferOverruns stays zero here: the one-byte length field
	// bounds every payload to the receive buffer. The field keeps
	// its slot in the link report layout.
	BufferOverruns uint32
}

type recvState int

const (
	stateWaitStart recvState = iota // waiting for STX
	stateWaitCmd                    // waiting for command code
	stateWaitLen                    // waiting for payload length
	stateWaitData                   // waiting for payload bytes
	stateWaitChecksum               // waiting for checksum
	stateWaitEnd                    // waiting for ETX
)

// Receiver assembles frames one byte at a time.
// It never blocks: feed bytes as they arrive with ProcessByte, and
// call Tick periodically so a stalled frame gets dropped instead of
// wedging the stream.
type Receiver struct {
	// Handler receives completed frames. Dispatch happens inside
	// ProcessByte, on the caller's goroutine.
	Handler Handler
	// Timeout is the idle limit for an in-progress frame.
	// Zero disables the check.
	Timeout time.Duration
	// Clock provides the current time.
	Clock func() time.Time

	state    recvState
	cmd      Command
	length   int
	index    int
	data     [MaxDataLen]byte
	lastByte time.Time

	received  uint32
	checksums uint32
	timeouts  uint32
}

// NewReceiver creates a Receiver with default timeout and clock.
func NewReceiver(h Handler) *Receiver {
	return &Receiver{
		Handler: h,
		Timeout: DefaultTimeout,
		Clock:   time.Now,
	}
}

// ProcessByte consumes one byte from the stream.
func (r *Receiver) ProcessByte(b byte) {
	now := r.now()
	if r.state != stateWaitStart && r.expired(now) {
		r.timeouts++
		r.reset()
	}
	r.lastByte = now

	switch r.state {
	case stateWaitStart:
		if b == STX {
			r.state = stateWaitCmd
		}
	case stateWaitCmd:
		r.cmd, r.state = Command(b), stateWaitLen
	case stateWaitLen:
		r.length, r.index = int(b), 0
		if r.length == 0 {
			r.state = stateWaitChecksum
		} else {
			r.state = stateWaitData
		}
	case stateWaitData:
		r.data[r.index] = b
		if r.index++; r.index == r.length {
			r.state = stateWaitChecksum
		}
	case stateWaitChecksum:
		if b != Checksum(r.cmd, r.data[:r.length]) {
			r.checksums++
			r.reset()
			return
		}
		r.state = stateWaitEnd
	case stateWaitEnd:
		if b == ETX {
			r.received++
			if r.Handler != nil {
				r.Handler.HandleFrame(r.cmd, r.data[:r.length])
			}
		}
		r.reset()
	}
}

// Tick drops the in-progress frame if it sat idle past Timeout.
// Call it periodically from a maintenance loop.
func (r *Receiver) Tick() {
	if r.state == stateWaitStart {
		return
	}
	if r.expired(r.now()) {
		r.timeouts++
		r.reset()
	}
}

// Reset discards any in-progress frame without counting an error.
func (r *Receiver) Reset() {
	r.reset()
}

// Stats snapshots the receive-side counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Received:       r.received,
		ChecksumErrors: r.checksums,
		TimeoutErrors:  r.timeouts,
	}
}

// ResetStats zeroes the receive-side counters.
func (r *Receiver) ResetStats() {
	r.received, r.checksums, r.timeouts = 0, 0, 0
}

func (r *Receiver) reset() {
	r.state = stateWaitStart
	r.length, r.index = 0, 0
}

func (r *Receiver) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

func (r *Receiver) expired(now time.Time) bool {
	return r.Timeout > 0 && now.Sub(r.lastByte) > r.Timeout
}
