// Package challenge tracks a streak of games played against the host.
// The console player holds Black. Wins and draws bank the final black
// piece count; reaching the target score wins the session, and two
// losses in a row end it.
package challenge

import (
	"time"

	"github.com/othellokit/console.go/pkg/game"
	"github.com/othellokit/console.go/pkg/proto/msgs"
)

// Session thresholds.
const (
	// WinScore is the cumulative score that wins the session.
	WinScore = 50
	// MaxLosses is the consecutive loss count that ends the session.
	MaxLosses = 2
)

// State of a challenge session.
type State byte

// Session states.
const (
	Inactive State = iota
	Active
	Won
	Lost
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Inactive:
		return "INACTIVE"
	case Active:
		return "ACTIVE"
	case Won:
		return "WIN"
	case Lost:
		return "GAME_OVER"
	}
	return "UNKNOWN"
}

// Session accumulates results across consecutive games.
type Session struct {
	// Clock provides timestamps. Defaults to time.Now.
	Clock func() time.Time

	state      State
	totalScore uint16
	lossStreak int
	played     int
	won        int
	lost       int
	drawn      int
	startedAt  time.Time
}

// NewSession creates an inactive Session.
func NewSession() *Session {
	return &Session{Clock: time.Now}
}

// Start begins a fresh session, clearing all statistics.
func (s *Session) Start() {
	s.state = Active
	s.totalScore = 0
	s.lossStreak = 0
	s.played, s.won, s.lost, s.drawn = 0, 0, 0, 0
	s.startedAt = s.Clock()
}

// End deactivates the session, keeping its statistics readable.
func (s *Session) End() {
	s.state = Inactive
}

// Reset is Start under another name, for symmetry with the wire action.
func (s *Session) Reset() {
	s.Start()
}

// ProcessResult folds a finished game into the session and returns the
// resulting state. Calls outside an active session are ignored.
func (s *Session) ProcessResult(final *game.State) State {
	if s.state != Active || final == nil || final.Status() == game.Playing {
		return s.state
	}

	s.played++
	black, _ := final.Counts()
	switch final.Winner() {
	case game.Black:
		s.won++
		s.lossStreak = 0
		s.totalScore += uint16(black)
	case game.White:
		s.lost++
		s.lossStreak++
	default:
		s.drawn++
		s.lossStreak = 0
		s.totalScore += uint16(black)
	}

	switch {
	case s.totalScore >= WinScore:
		s.state = Won
	case s.lossStreak >= MaxLosses:
		s.state = Lost
	}
	return s.state
}

// Status snapshots the session as a score-update payload.
func (s *Session) Status() *msgs.ScoreUpdate {
	result := msgs.ResultOngoing
	switch s.state {
	case Won:
		result = msgs.ResultWin
	case Lost:
		result = msgs.ResultGameOver
	}
	return &msgs.ScoreUpdate{
		BlackScore: byte(s.won),
		WhiteScore: byte(s.lost),
		TotalScore: s.totalScore,
		Result:     result,
	}
}

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Active reports whether a session is running or just concluded.
func (s *Session) Active() bool { return s.state != Inactive }

// TotalScore returns the banked cumulative score.
func (s *Session) TotalScore() uint16 { return s.totalScore }

// ConsecutiveLosses returns the current loss streak.
func (s *Session) ConsecutiveLosses() int { return s.lossStreak }

// GamesPlayed returns the number of games folded in so far.
func (s *Session) GamesPlayed() int { return s.played }

// Record returns wins, losses and draws.
func (s *Session) Record() (won, lost, drawn int) {
	return s.won, s.lost, s.drawn
}

// Duration returns how long the session has been running.
func (s *Session) Duration() time.Duration {
	if s.state == Inactive {
		return 0
	}
	return s.Clock().Sub(s.startedAt)
}
