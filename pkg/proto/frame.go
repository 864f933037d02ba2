package proto

import "errors"

// Frame markers and limits.
const (
	STX byte = 0x02
	ETX byte = 0x03

	// MaxDataLen is the largest payload a single frame can carry.
	MaxDataLen = 255
)

// ErrDataTooLong indicates a payload exceeding MaxDataLen.
var ErrDataTooLong = errors.New("payload too long")

// Checksum computes the XOR checksum over command, length and payload.
func Checksum(cmd Command, data []byte) byte {
	sum := byte(cmd) ^ byte(len(data))
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// Frame is a single decoded protocol frame.
type Frame struct {
	Command Command
	Data    []byte
}

// Encode renders the frame in wire format.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Data) > MaxDataLen {
		return nil, ErrDataTooLong
	}
	buf := make([]byte, 0, len(f.Data)+5)
	buf = append(buf, STX, byte(f.Command), byte(len(f.Data)))
	buf = append(buf, f.Data...)
	buf = append(buf, Checksum(f.Command, f.Data), ETX)
	return buf, nil
}
