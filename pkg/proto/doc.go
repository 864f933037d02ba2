// Package proto implements the framed host-link protocol.
package proto

// The protocol is spoken between the console firmware core and the
// host PC over a byte stream (e.g. a serial port). Each frame is:
//
//	STX(0x02) | COMMAND | LENGTH | DATA[0..255] | CHECKSUM | ETX(0x03)
//
// CHECKSUM is the XOR of COMMAND, LENGTH and every DATA byte. Frames
// violating the markers, the checksum or the receive timeout are
// dropped and counted; nothing here is fatal. The receiver is advanced
// one byte at a time and never blocks waiting for more input.
//
// Producer/consumer: console firmware core and host application.
