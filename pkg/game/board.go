// Package game implements the Othello/Reversi rules engine.
//
// The engine is pure logic with no I/O: it owns the canonical game
// state and enforces move legality, capture, turn alternation, pass
// handling and termination. All mutations happen through State
// methods; invalid input never mutates state.
package game

import (
	"errors"
	"time"
)

// BoardSize is the side length of the square board.
const BoardSize = 8

// Piece is the content of one board cell.
type Piece byte

// Cell values.
const (
	Empty Piece = iota
	Black
	White
)

// Valid reports whether the piece is an actual player color.
func (p Piece) Valid() bool {
	return p == Black || p == White
}

// Opponent returns the opposing color.
func (p Piece) Opponent() Piece {
	switch p {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

// Char returns the single-character representation ('.', 'B', 'W').
func (p Piece) Char() byte {
	switch p {
	case Black:
		return 'B'
	case White:
		return 'W'
	}
	return '.'
}

// PieceFromChar parses a single-character representation.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'B', 'b':
		return Black
	case 'W', 'w':
		return White
	}
	return Empty
}

// Status is the game outcome state.
type Status byte

// Game statuses.
const (
	Playing Status = iota
	BlackWin
	WhiteWin
	Draw
)

// Move records one executed or enumerated placement.
type Move struct {
	Row, Col int
	Player   Piece
	Flipped  int
	Time     time.Time
}

// directions enumerates the 8 compass directions (N, NE, E, SE, S, SW, W, NW).
var directions = [8][2]int{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
}

// State is the canonical game state. Create with NewGame; mutate only
// through MakeMove, PassTurn, PlaceAnywhere and Reset.
type State struct {
	// Clock provides timestamps for moves. Defaults to time.Now.
	Clock func() time.Time

	board      [BoardSize][BoardSize]Piece
	current    Piece
	blackCount int
	whiteCount int
	status     Status
	moveCount  uint32
	lastMove   Move
	passes     int
	startTime  time.Time
}

// NewGame creates a State at the standard opening position, Black to move.
func NewGame() *State {
	s := &State{Clock: time.Now}
	s.Reset()
	return s
}

// Reset restores the standard opening position and restarts the clock.
func (s *State) Reset() {
	if s.Clock == nil {
		s.Clock = time.Now
	}
	s.board = [BoardSize][BoardSize]Piece{}
	mid := BoardSize/2 - 1
	s.board[mid][mid] = White
	s.board[mid+1][mid+1] = White
	s.board[mid][mid+1] = Black
	s.board[mid+1][mid] = Black
	s.current = Black
	s.blackCount, s.whiteCount = 2, 2
	s.status = Playing
	s.moveCount = 0
	s.passes = 0
	s.startTime = s.Clock()
	// Out-of-range position marks "no move yet".
	s.lastMove = Move{Row: -1, Col: -1, Player: Empty, Time: s.startTime}
}

// inBoard reports whether the coordinates are on the board.
func inBoard(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// Piece returns the cell content, Empty for out-of-range coordinates.
func (s *State) Piece(row, col int) Piece {
	if !inBoard(row, col) {
		return Empty
	}
	return s.board[row][col]
}

// CurrentPlayer returns the color to move.
func (s *State) CurrentPlayer() Piece { return s.current }

// Counts returns the black and white piece counts.
func (s *State) Counts() (black, white int) { return s.blackCount, s.whiteCount }

// Status returns the game outcome state.
func (s *State) Status() Status { return s.status }

// GameOver reports whether the game has ended.
func (s *State) GameOver() bool { return s.status != Playing }

// MoveCount returns the number of executed placements.
func (s *State) MoveCount() uint32 { return s.moveCount }

// LastMove returns the most recent placement.
func (s *State) LastMove() Move { return s.lastMove }

// ConsecutivePasses returns the current run of passes (0-2).
func (s *State) ConsecutivePasses() int { return s.passes }

// StartTime returns when the game was started.
func (s *State) StartTime() time.Time { return s.startTime }

// Duration returns the elapsed game time.
func (s *State) Duration() time.Duration { return s.Clock().Sub(s.startTime) }

// Winner returns the winning color, or Empty while playing or for a draw.
func (s *State) Winner() Piece {
	switch s.status {
	case BlackWin:
		return Black
	case WhiteWin:
		return White
	}
	return Empty
}

// scanDirection walks one compass direction from (row,col) counting a
// contiguous run of opponent pieces terminated by one of player's own.
// With execute set, the run is flipped to player. This single primitive
// backs both legality checks and move execution so the two can never
// disagree.
func (s *State) scanDirection(row, col, dx, dy int, player Piece, execute bool) int {
	opponent := player.Opponent()
	run := 0
	r, c := row+dx, col+dy
	for inBoard(r, c) && s.board[r][c] == opponent {
		run++
		r += dx
		c += dy
	}
	if run == 0 || !inBoard(r, c) || s.board[r][c] != player {
		return 0
	}
	if execute {
		r, c = row+dx, col+dy
		for i := 0; i < run; i++ {
			s.board[r][c] = player
			r += dx
			c += dy
		}
	}
	return run
}

// SimulateMove returns the number of pieces the move would flip without
// mutating state, 0 if the move is invalid. Pure: repeated calls are
// idempotent.
func (s *State) SimulateMove(row, col int, player Piece) int {
	if !inBoard(row, col) || s.board[row][col] != Empty || !player.Valid() {
		return 0
	}
	total := 0
	for _, d := range directions {
		total += s.scanDirection(row, col, d[0], d[1], player, false)
	}
	return total
}

// IsValidMove reports whether placing player at (row,col) is legal.
// Fails closed on out-of-range coordinates, occupied cells and
// non-player piece values.
func (s *State) IsValidMove(row, col int, player Piece) bool {
	return s.SimulateMove(row, col, player) > 0
}

// MakeMove executes a placement and returns the number of pieces
// flipped, 0 if the move is invalid or the game is over. On success the
// turn passes to the opponent; an opponent with no legal reply is
// skipped (recorded as a pass), and if neither side can move, or the
// board is full, the game is finalized by piece-count majority.
func (s *State) MakeMove(row, col int, player Piece) int {
	if s.status != Playing || !s.IsValidMove(row, col, player) {
		return 0
	}

	s.board[row][col] = player
	flipped := 0
	for _, d := range directions {
		flipped += s.scanDirection(row, col, d[0], d[1], player, true)
	}

	s.lastMove = Move{Row: row, Col: col, Player: player, Flipped: flipped, Time: s.Clock()}
	s.moveCount++
	s.passes = 0
	s.recount()

	s.current = player.Opponent()
	if !s.HasValidMoves(s.current) {
		if !s.HasValidMoves(player) {
			s.finalize()
		} else {
			// Opponent passes, mover continues.
			s.current = player
			s.passes = 1
		}
	}
	if s.blackCount+s.whiteCount == BoardSize*BoardSize {
		s.finalize()
	}
	return flipped
}

// PassTurn records a pass and switches players; two consecutive passes
// finalize the game. Returns the resulting status.
func (s *State) PassTurn() Status {
	if s.status != Playing {
		return s.status
	}
	s.passes++
	s.current = s.current.Opponent()
	if s.passes >= 2 {
		s.finalize()
	}
	return s.status
}

// Conclude ends a game in progress immediately. The outcome is decided
// from the piece counts on the board. A finished game is unchanged.
func (s *State) Conclude() Status {
	if s.status == Playing {
		s.finalize()
	}
	return s.status
}

// SetTurn overrides whose turn it is. Used by free-placement board
// setup, never by normal play.
func (s *State) SetTurn(p Piece) bool {
	if !p.Valid() {
		return false
	}
	s.current = p
	return true
}

// PlaceAnywhere places a piece of the given color on any on-board cell,
// occupied or not, and flips every run captured in the 8 directions. It
// performs no legality check and never switches the current player.
// This is the free-placement rule variant used by the console's
// free-placement mode; normal play never calls it.
func (s *State) PlaceAnywhere(row, col int, player Piece) int {
	if s.status != Playing || !inBoard(row, col) || !player.Valid() {
		return 0
	}
	s.board[row][col] = player
	flipped := 0
	for _, d := range directions {
		flipped += s.scanDirection(row, col, d[0], d[1], player, true)
	}
	s.lastMove = Move{Row: row, Col: col, Player: player, Flipped: flipped, Time: s.Clock()}
	s.moveCount++
	s.passes = 0
	s.recount()
	return flipped
}

// ErrBadPosition indicates a snapshot that cannot describe a game.
var ErrBadPosition = errors.New("invalid position")

// LoadPosition overwrites the whole position from a synchronized
// snapshot, replacing board, turn and move counter. The piece counters
// are recomputed rather than trusted. A snapshot with an invalid cell
// or current player is rejected without touching the state.
func (s *State) LoadPosition(board *[BoardSize][BoardSize]Piece, current Piece, moveCount uint32, over bool) error {
	if !current.Valid() {
		return ErrBadPosition
	}
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if p := board[row][col]; p != Empty && !p.Valid() {
				return ErrBadPosition
			}
		}
	}
	s.board = *board
	s.current = current
	s.moveCount = moveCount
	s.passes = 0
	s.status = Playing
	s.recount()
	if over {
		s.finalize()
	}
	return nil
}

// Copy returns an independent deep copy of the state.
func (s *State) Copy() *State {
	dup := *s
	return &dup
}

// recount refreshes the piece counters from a full board scan. Counting
// from scratch instead of incrementally keeps the counters
// self-correcting.
func (s *State) recount() {
	s.blackCount = s.CountPieces(Black)
	s.whiteCount = s.CountPieces(White)
}

// finalize ends the game, deciding the winner by piece-count majority.
func (s *State) finalize() {
	switch {
	case s.blackCount > s.whiteCount:
		s.status = BlackWin
	case s.whiteCount > s.blackCount:
		s.status = WhiteWin
	default:
		s.status = Draw
	}
}
