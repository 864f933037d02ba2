package proto

import (
	"io"
	"sync"
)

// Sender writes frames to the stream.
// Each frame goes out as a single contiguous Write, serialized by an
// internal lock, so frames from concurrent senders never interleave.
type Sender struct {
	Writer io.Writer

	lock sync.Mutex
	sent uint32
}

// NewSender creates a Sender over w.
func NewSender(w io.Writer) *Sender {
	return &Sender{Writer: w}
}

// Send encodes and writes one frame.
func (s *Sender) Send(cmd Command, data []byte) error {
	frame := Frame{Command: cmd, Data: data}
	buf, err := frame.Encode()
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, err = s.Writer.Write(buf); err != nil {
		return err
	}
	s.sent++
	return nil
}

// SendAck acknowledges a processed frame.
// Status StatusOK indicates success, anything else a failure.
func (s *Sender) SendAck(orig Command, status byte) error {
	return s.Send(CmdAck, []byte{byte(orig), status})
}

// SendError reports a protocol-level error to the peer.
func (s *Sender) SendError(code byte, detail []byte) error {
	data := make([]byte, 0, len(detail)+1)
	data = append(data, code)
	data = append(data, detail...)
	return s.Send(CmdError, data)
}

// Sent reports the number of frames written.
func (s *Sender) Sent() uint32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.sent
}

// ResetStats zeroes the sent counter.
func (s *Sender) ResetStats() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sent = 0
}
