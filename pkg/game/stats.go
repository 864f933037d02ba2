package game

import "time"

// Stats accumulates results across finished games.
type Stats struct {
	Games      uint32
	BlackWins  uint32
	WhiteWins  uint32
	Draws      uint32
	TotalMoves uint32

	Longest  uint32 // move count of the longest game
	Shortest uint32 // move count of the shortest game

	TotalDuration time.Duration
}

// Record folds a finished game into the statistics. A game still in
// progress is ignored.
func (st *Stats) Record(final *State) {
	if final == nil || final.Status() == Playing {
		return
	}
	st.Games++
	st.TotalMoves += final.MoveCount()

	switch final.Status() {
	case BlackWin:
		st.BlackWins++
	case WhiteWin:
		st.WhiteWins++
	case Draw:
		st.Draws++
	}

	moves := final.MoveCount()
	if st.Games == 1 {
		st.Longest, st.Shortest = moves, moves
	} else {
		if moves > st.Longest {
			st.Longest = moves
		}
		if moves < st.Shortest {
			st.Shortest = moves
		}
	}
	st.TotalDuration += final.Duration()
}

// Reset clears all counters.
func (st *Stats) Reset() {
	*st = Stats{}
}
