package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func finishedGame(t *testing.T, winner Piece) *State {
	t.Helper()
	var s *State
	if winner == Black {
		s = stateFrom(t, Black, "BW......", "........", "........", "........",
			"........", "........", "........", "........")
		require.Equal(t, 1, s.MakeMove(0, 2, Black))
	} else {
		s = stateFrom(t, White, "WB......", "........", "........", "........",
			"........", "........", "........", "........")
		require.Equal(t, 1, s.MakeMove(0, 2, White))
	}
	require.True(t, s.GameOver())
	return s
}

func TestStatsRecord(t *testing.T) {
	var st Stats
	st.Record(finishedGame(t, Black))
	st.Record(finishedGame(t, White))
	require.Equal(t, uint32(2), st.Games)
	require.Equal(t, uint32(1), st.BlackWins)
	require.Equal(t, uint32(1), st.WhiteWins)
	require.Equal(t, uint32(0), st.Draws)
	require.Equal(t, uint32(2), st.TotalMoves)
	require.Equal(t, uint32(1), st.Longest)
	require.Equal(t, uint32(1), st.Shortest)
}

func TestStatsIgnoresUnfinished(t *testing.T) {
	var st Stats
	st.Record(NewGame())
	st.Record(nil)
	require.Equal(t, uint32(0), st.Games)
}

func TestStatsReset(t *testing.T) {
	var st Stats
	st.Record(finishedGame(t, Black))
	st.Reset()
	require.Equal(t, Stats{}, st)
}
