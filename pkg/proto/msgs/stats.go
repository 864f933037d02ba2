package msgs

import "encoding/binary"

// GameStatsSize is the wire size of a GameStats payload.
const GameStatsSize = 32

// GameStats reports lifetime game counters.
type GameStats struct {
	TotalGames   uint32
	BlackWins    uint32
	WhiteWins    uint32
	Draws        uint32
	TotalMoves   uint32
	LongestGame  uint32 // moves
	ShortestGame uint32 // moves
	TotalTime    uint32 // seconds
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *GameStats) MarshalBinary() ([]byte, error) {
	buf := make([]byte, GameStatsSize)
	for i, v := range []uint32{
		m.TotalGames, m.BlackWins, m.WhiteWins, m.Draws,
		m.TotalMoves, m.LongestGame, m.ShortestGame, m.TotalTime,
	} {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *GameStats) UnmarshalBinary(data []byte) error {
	if len(data) != GameStatsSize {
		return ErrBadLength
	}
	m.TotalGames = binary.LittleEndian.Uint32(data)
	m.BlackWins = binary.LittleEndian.Uint32(data[4:])
	m.WhiteWins = binary.LittleEndian.Uint32(data[8:])
	m.Draws = binary.LittleEndian.Uint32(data[12:])
	m.TotalMoves = binary.LittleEndian.Uint32(data[16:])
	m.LongestGame = binary.LittleEndian.Uint32(data[20:])
	m.ShortestGame = binary.LittleEndian.Uint32(data[24:])
	m.TotalTime = binary.LittleEndian.Uint32(data[28:])
	return nil
}
