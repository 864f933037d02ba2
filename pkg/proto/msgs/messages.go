package msgs

import (
	"encoding/binary"
	"errors"
)

// ErrBadLength indicates a payload whose length does not match its type.
var ErrBadLength = errors.New("bad payload length")

// Cell values in a BoardState payload.
const (
	CellEmpty byte = 0
	CellBlack byte = 1
	CellWhite byte = 2
)

// Payload sizes in bytes.
const (
	BoardStateSize  = 72
	MoveSize        = 7
	MoveShortSize   = 3 // without timestamp
	KeyEventSize    = 8
	AckSize         = 2
	SystemInfoSize  = 17
	GameControlSize = 5
	ModeSelectSize  = 3
	ScoreUpdateSize = 5
	TimerUpdateSize = 3
	ColorSelectSize = 1
	HeartbeatSize   = 4
)

// BoardState is the full game snapshot, synchronized in both
// directions between console and host.
type BoardState struct {
	Cells         [64]byte // row-major, CellEmpty/CellBlack/CellWhite
	CurrentPlayer byte
	BlackCount    byte
	WhiteCount    byte
	GameOver      bool
	MoveCount     uint32
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *BoardState) MarshalBinary() ([]byte, error) {
	buf := make([]byte, BoardStateSize)
	copy(buf, m.Cells[:])
	buf[64] = m.CurrentPlayer
	buf[65] = m.BlackCount
	buf[66] = m.WhiteCount
	if m.GameOver {
		buf[67] = 1
	}
	binary.LittleEndian.PutUint32(buf[68:], m.MoveCount)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *BoardState) UnmarshalBinary(data []byte) error {
	if len(data) != BoardStateSize {
		return ErrBadLength
	}
	copy(m.Cells[:], data[:64])
	m.CurrentPlayer = data[64]
	m.BlackCount = data[65]
	m.WhiteCount = data[66]
	m.GameOver = data[67] == 1
	m.MoveCount = binary.LittleEndian.Uint32(data[68:])
	return nil
}

// Move asks for a stone at Row,Col by Player.
type Move struct {
	Row       byte
	Col       byte
	Player    byte
	Timestamp uint32
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Move) MarshalBinary() ([]byte, error) {
	buf := make([]byte, MoveSize)
	buf[0], buf[1], buf[2] = m.Row, m.Col, m.Player
	binary.LittleEndian.PutUint32(buf[3:], m.Timestamp)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// The short form without a timestamp is accepted, some hosts send it.
func (m *Move) UnmarshalBinary(data []byte) error {
	switch len(data) {
	case MoveSize:
		m.Timestamp = binary.LittleEndian.Uint32(data[3:])
	case MoveShortSize:
		m.Timestamp = 0
	default:
		return ErrBadLength
	}
	m.Row, m.Col, m.Player = data[0], data[1], data[2]
	return nil
}

// Key states in a KeyEvent payload.
const (
	KeyReleased    byte = 0
	KeyPressed     byte = 1
	KeyLongPressed byte = 2
)

// KeyEvent reports a debounced keypad transition.
type KeyEvent struct {
	Row       byte
	Col       byte
	State     byte
	Logical   byte
	Timestamp uint32
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *KeyEvent) MarshalBinary() ([]byte, error) {
	buf := make([]byte, KeyEventSize)
	buf[0], buf[1], buf[2], buf[3] = m.Row, m.Col, m.State, m.Logical
	binary.LittleEndian.PutUint32(buf[4:], m.Timestamp)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *KeyEvent) UnmarshalBinary(data []byte) error {
	if len(data) != KeyEventSize {
		return ErrBadLength
	}
	m.Row, m.Col, m.State, m.Logical = data[0], data[1], data[2], data[3]
	m.Timestamp = binary.LittleEndian.Uint32(data[4:])
	return nil
}

// Ack acknowledges a processed frame.
type Ack struct {
	Command byte
	Status  byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Ack) MarshalBinary() ([]byte, error) {
	return []byte{m.Command, m.Status}, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Ack) UnmarshalBinary(data []byte) error {
	if len(data) != AckSize {
		return ErrBadLength
	}
	m.Command, m.Status = data[0], data[1]
	return nil
}

// OK indicates the acknowledged command succeeded.
func (m *Ack) OK() bool {
	return m.Status == 0
}

// SystemInfo describes the running console.
type SystemInfo struct {
	Uptime         uint32  // seconds
	Version        [4]byte // major, minor, patch, build
	FreeMemory     uint32  // bytes
	CPUUsage       byte    // percent
	KeypadScanRate uint16  // scans per second
	DisplayRate    uint16  // display updates per second
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *SystemInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, SystemInfoSize)
	binary.LittleEndian.PutUint32(buf, m.Uptime)
	copy(buf[4:], m.Version[:])
	binary.LittleEndian.PutUint32(buf[8:], m.FreeMemory)
	buf[12] = m.CPUUsage
	binary.LittleEndian.PutUint16(buf[13:], m.KeypadScanRate)
	binary.LittleEndian.PutUint16(buf[15:], m.DisplayRate)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *SystemInfo) UnmarshalBinary(data []byte) error {
	if len(data) != SystemInfoSize {
		return ErrBadLength
	}
	m.Uptime = binary.LittleEndian.Uint32(data)
	copy(m.Version[:], data[4:8])
	m.FreeMemory = binary.LittleEndian.Uint32(data[8:])
	m.CPUUsage = data[12]
	m.KeypadScanRate = binary.LittleEndian.Uint16(data[13:])
	m.DisplayRate = binary.LittleEndian.Uint16(data[15:])
	return nil
}

// Game control actions.
const (
	ActionStart  byte = 0x01
	ActionPause  byte = 0x02
	ActionResume byte = 0x03
	ActionEnd    byte = 0x04
	ActionReset  byte = 0x05
)

// GameControl drives the game lifecycle.
type GameControl struct {
	Action    byte
	Timestamp uint32
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *GameControl) MarshalBinary() ([]byte, error) {
	buf := make([]byte, GameControlSize)
	buf[0] = m.Action
	binary.LittleEndian.PutUint32(buf[1:], m.Timestamp)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *GameControl) UnmarshalBinary(data []byte) error {
	if len(data) != GameControlSize {
		return ErrBadLength
	}
	m.Action = data[0]
	m.Timestamp = binary.LittleEndian.Uint32(data[1:])
	return nil
}

// Game modes.
const (
	ModeNormal    byte = 0x01
	ModeChallenge byte = 0x02
	ModeTimed     byte = 0x03
	ModeFree      byte = 0x04 // free placement, for board setup
)

// ModeSelect switches the game mode.
type ModeSelect struct {
	Mode      byte
	TimeLimit uint16 // seconds, timed mode only
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *ModeSelect) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ModeSelectSize)
	buf[0] = m.Mode
	binary.LittleEndian.PutUint16(buf[1:], m.TimeLimit)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *ModeSelect) UnmarshalBinary(data []byte) error {
	if len(data) != ModeSelectSize {
		return ErrBadLength
	}
	m.Mode = data[0]
	m.TimeLimit = binary.LittleEndian.Uint16(data[1:])
	return nil
}

// Challenge results in a ScoreUpdate payload.
const (
	ResultOngoing  byte = 0
	ResultWin      byte = 1
	ResultGameOver byte = 2
)

// ScoreUpdate reports challenge mode progress.
type ScoreUpdate struct {
	BlackScore byte
	WhiteScore byte
	TotalScore uint16
	Result     byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *ScoreUpdate) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ScoreUpdateSize)
	buf[0], buf[1] = m.BlackScore, m.WhiteScore
	binary.LittleEndian.PutUint16(buf[2:], m.TotalScore)
	buf[4] = m.Result
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *ScoreUpdate) UnmarshalBinary(data []byte) error {
	if len(data) != ScoreUpdateSize {
		return ErrBadLength
	}
	m.BlackScore, m.WhiteScore = data[0], data[1]
	m.TotalScore = binary.LittleEndian.Uint16(data[2:])
	m.Result = data[4]
	return nil
}

// Timer states in a TimerUpdate payload.
const (
	TimerStopped byte = 0
	TimerRunning byte = 1
	TimerPaused  byte = 2
	TimerExpired byte = 3
)

// TimerUpdate carries the timed mode countdown.
type TimerUpdate struct {
	Remaining uint16 // seconds
	State     byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *TimerUpdate) MarshalBinary() ([]byte, error) {
	buf := make([]byte, TimerUpdateSize)
	binary.LittleEndian.PutUint16(buf, m.Remaining)
	buf[2] = m.State
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *TimerUpdate) UnmarshalBinary(data []byte) error {
	if len(data) != TimerUpdateSize {
		return ErrBadLength
	}
	m.Remaining = binary.LittleEndian.Uint16(data)
	m.State = data[2]
	return nil
}

// ColorSelect picks the acting color in free placement mode.
type ColorSelect struct {
	Player byte // CellBlack or CellWhite
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *ColorSelect) MarshalBinary() ([]byte, error) {
	return []byte{m.Player}, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *ColorSelect) UnmarshalBinary(data []byte) error {
	if len(data) != ColorSelectSize {
		return ErrBadLength
	}
	m.Player = data[0]
	return nil
}

// Heartbeat proves liveness, carrying the sender uptime.
type Heartbeat struct {
	Uptime uint32 // seconds
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Heartbeat) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeartbeatSize)
	binary.LittleEndian.PutUint32(buf, m.Uptime)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Heartbeat) UnmarshalBinary(data []byte) error {
	if len(data) != HeartbeatSize {
		return ErrBadLength
	}
	m.Uptime = binary.LittleEndian.Uint32(data)
	return nil
}
