// Package hostlink runs the framed protocol over a byte stream.
package hostlink

// A Link binds a protocol receiver and sender to one io.ReadWriter
// (serial device, TCP socket or websocket) and pumps it in the
// background: received bytes feed the frame receiver, a maintenance
// ticker expires stalled frames, and typed convenience senders wrap
// the payload codecs for the transmit direction.
