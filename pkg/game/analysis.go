package game

import (
	"bytes"
	"fmt"
)

// ValidMoves enumerates all legal moves for the given player, with the
// flip count each would yield.
func (s *State) ValidMoves(player Piece) []Move {
	var moves []Move
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if n := s.SimulateMove(row, col, player); n > 0 {
				moves = append(moves, Move{Row: row, Col: col, Player: player, Flipped: n, Time: s.Clock()})
			}
		}
	}
	return moves
}

// CountValidMoves returns the number of legal moves for the player.
func (s *State) CountValidMoves(player Piece) int {
	count := 0
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if s.IsValidMove(row, col, player) {
				count++
			}
		}
	}
	return count
}

// HasValidMoves reports whether the player has any legal move.
func (s *State) HasValidMoves(player Piece) bool {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if s.IsValidMove(row, col, player) {
				return true
			}
		}
	}
	return false
}

// CountPieces counts cells holding the given value. Empty counts empty
// cells.
func (s *State) CountPieces(p Piece) int {
	count := 0
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if s.board[row][col] == p {
				count++
			}
		}
	}
	return count
}

// IsEdge reports whether the position lies on the board edge.
// Informational only, not used in legality.
func IsEdge(row, col int) bool {
	return row == 0 || row == BoardSize-1 || col == 0 || col == BoardSize-1
}

// IsCorner reports whether the position is a board corner.
func IsCorner(row, col int) bool {
	return (row == 0 || row == BoardSize-1) && (col == 0 || col == BoardSize-1)
}

// Validate checks internal consistency: counters match a full recount,
// total pieces are plausible and the current player is a real color.
func (s *State) Validate() bool {
	black, white := s.CountPieces(Black), s.CountPieces(White)
	if black != s.blackCount || white != s.whiteCount {
		return false
	}
	if total := black + white; total < 4 || total > BoardSize*BoardSize {
		return false
	}
	return s.current.Valid()
}

// String renders the board with coordinates and a summary line.
func (s *State) String() string {
	var w bytes.Buffer
	w.WriteString("  01234567\n")
	for row := 0; row < BoardSize; row++ {
		fmt.Fprintf(&w, "%d ", row)
		for col := 0; col < BoardSize; col++ {
			w.WriteByte(s.board[row][col].Char())
		}
		w.WriteByte('\n')
	}
	fmt.Fprintf(&w, "Black: %d, White: %d, Turn: %c\n",
		s.blackCount, s.whiteCount, s.current.Char())
	return w.String()
}
