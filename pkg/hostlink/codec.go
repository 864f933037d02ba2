package hostlink

import (
	"time"

	"github.com/othellokit/console.go/pkg/game"
	"github.com/othellokit/console.go/pkg/proto/msgs"
)

// BoardFromState renders a game state as a board payload.
func BoardFromState(st *game.State) *msgs.BoardState {
	var m msgs.BoardState
	for row := 0; row < game.BoardSize; row++ {
		for col := 0; col < game.BoardSize; col++ {
			m.Cells[row*game.BoardSize+col] = byte(st.Piece(row, col))
		}
	}
	black, white := st.Counts()
	m.CurrentPlayer = byte(st.CurrentPlayer())
	m.BlackCount = byte(black)
	m.WhiteCount = byte(white)
	m.GameOver = st.GameOver()
	m.MoveCount = st.MoveCount()
	return &m
}

// ApplyBoard overwrites a game state from a board payload. The
// snapshot is validated before anything is touched.
func ApplyBoard(m *msgs.BoardState, st *game.State) error {
	var board [game.BoardSize][game.BoardSize]game.Piece
	for row := 0; row < game.BoardSize; row++ {
		for col := 0; col < game.BoardSize; col++ {
			board[row][col] = game.Piece(m.Cells[row*game.BoardSize+col])
		}
	}
	return st.LoadPosition(&board, game.Piece(m.CurrentPlayer), m.MoveCount, m.GameOver)
}

// GameStatsFromStats renders lifetime counters as a stats payload.
func GameStatsFromStats(stats *game.Stats) *msgs.GameStats {
	return &msgs.GameStats{
		TotalGames:   stats.Games,
		BlackWins:    stats.BlackWins,
		WhiteWins:    stats.WhiteWins,
		Draws:        stats.Draws,
		TotalMoves:   stats.TotalMoves,
		LongestGame:  stats.Longest,
		ShortestGame: stats.Shortest,
		TotalTime:    uint32(stats.TotalDuration / time.Second),
	}
}
