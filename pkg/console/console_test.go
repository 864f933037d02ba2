package console

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/othellokit/console.go/pkg/console/challenge"
	"github.com/othellokit/console.go/pkg/console/control"
	"github.com/othellokit/console.go/pkg/framework"
	"github.com/othellokit/console.go/pkg/game"
	"github.com/othellokit/console.go/pkg/hostlink"
	"github.com/othellokit/console.go/pkg/keypad"
	"github.com/othellokit/console.go/pkg/proto"
	"github.com/othellokit/console.go/pkg/proto/msgs"
)

// frameSink collects everything the console sends to the host.
type frameSink struct {
	lock sync.Mutex
	out  bytes.Buffer
}

func (s *frameSink) Read(p []byte) (int, error) {
	select {} // the console under test never reads
}

func (s *frameSink) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.out.Write(p)
}

type sentFrame struct {
	cmd  proto.Command
	data []byte
}

type frameRecorder struct {
	frames []sentFrame
}

func (r *frameRecorder) HandleFrame(cmd proto.Command, data []byte) {
	r.frames = append(r.frames, sentFrame{cmd: cmd, data: append([]byte(nil), data...)})
}

// frames re-parses everything sent so far.
func (s *frameSink) frames() []sentFrame {
	s.lock.Lock()
	buf := append([]byte(nil), s.out.Bytes()...)
	s.lock.Unlock()
	rec := &frameRecorder{}
	r := proto.NewReceiver(rec)
	for _, b := range buf {
		r.ProcessByte(b)
	}
	return rec.frames
}

func (s *frameSink) reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.out.Reset()
}

// lastOf returns the most recent frame of the given command.
func lastOf(t *testing.T, frames []sentFrame, cmd proto.Command) sentFrame {
	t.Helper()
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].cmd == cmd {
			return frames[i]
		}
	}
	t.Fatalf("no %v frame sent", cmd)
	return sentFrame{}
}

func hasCmd(frames []sentFrame, cmd proto.Command) bool {
	for _, f := range frames {
		if f.cmd == cmd {
			return true
		}
	}
	return false
}

type manualClock struct {
	now time.Time
}

func (c *manualClock) time() time.Time {
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// fakeTick satisfies framework.TickContext for direct phase runs.
type fakeTick struct {
	phase framework.Phase
	clock *manualClock
}

func (tc *fakeTick) Time() time.Time          { return tc.clock.now }
func (tc *fakeTick) Context() context.Context { return context.Background() }
func (tc *fakeTick) Phase() framework.Phase   { return tc.phase }
func (tc *fakeTick) Wake()                    {}

func newTestConsole(t *testing.T) (*Console, *frameSink, *manualClock) {
	t.Helper()
	sink := &frameSink{}
	link := hostlink.NewLink(sink, nil)
	clock := &manualClock{now: time.Unix(5000, 0)}
	c := New(link)
	c.Clock = clock.time
	c.Display = &GridDisplay{}
	c.board.Clock = clock.time
	c.ctrl.Clock = clock.time
	c.session.Clock = clock.time
	c.started = clock.now
	c.lastInfo = clock.now
	return c, sink, clock
}

func (c *Console) runPhase(phase framework.Phase, clock *manualClock) {
	c.Tick(&fakeTick{phase: phase, clock: clock})
}

func requireAck(t *testing.T, frames []sentFrame, cmd proto.Command, status byte) {
	t.Helper()
	f := lastOf(t, frames, proto.CmdAck)
	var ack msgs.Ack
	require.NoError(t, ack.UnmarshalBinary(f.data))
	require.Equal(t, byte(cmd), ack.Command)
	require.Equal(t, status, ack.Status)
}

func encode(t *testing.T, m interface {
	MarshalBinary() ([]byte, error)
}) []byte {
	t.Helper()
	buf, err := m.MarshalBinary()
	require.NoError(t, err)
	return buf
}

// wonBoard is a finished all-black position as a sync payload.
func wonBoard(t *testing.T) []byte {
	bs := &msgs.BoardState{GameOver: true, MoveCount: 60}
	for i := range bs.Cells {
		bs.Cells[i] = msgs.CellBlack
	}
	bs.CurrentPlayer = msgs.CellBlack
	bs.BlackCount = 64
	return encode(t, bs)
}

func TestMoveAckCodes(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	// Opening move for black.
	c.HandleFrame(proto.CmdMakeMove, []byte{2, 3, 1})
	requireAck(t, sink.frames(), proto.CmdMakeMove, 0)
	require.Equal(t, uint32(1), c.Board().MoveCount())
	require.Equal(t, game.White, c.Board().CurrentPlayer())

	sink.reset()
	c.HandleFrame(proto.CmdMakeMove, []byte{0, 0, 2})
	requireAck(t, sink.frames(), proto.CmdMakeMove, 1)

	sink.reset()
	c.HandleFrame(proto.CmdMakeMove, []byte{2})
	requireAck(t, sink.frames(), proto.CmdMakeMove, 3)
}

func TestGameConfigStartsFreshGame(t *testing.T) {
	c, sink, _ := newTestConsole(t)
	c.HandleFrame(proto.CmdMakeMove, []byte{2, 3, 1})

	sink.reset()
	c.HandleFrame(proto.CmdGameConfig, nil)
	frames := sink.frames()
	requireAck(t, frames, proto.CmdGameConfig, 0)

	var bs msgs.BoardState
	require.NoError(t, bs.UnmarshalBinary(lastOf(t, frames, proto.CmdBoardState).data))
	require.Equal(t, uint32(0), bs.MoveCount)
	require.Equal(t, byte(2), bs.BlackCount)
	require.Equal(t, byte(2), bs.WhiteCount)
}

func TestBoardSyncFromHost(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	requireAck(t, sink.frames(), proto.CmdBoardState, 0)
	require.True(t, c.Board().GameOver())
	require.Equal(t, game.BlackWin, c.Board().Status())
}

func TestBoardSyncBadPayloadRejected(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	c.HandleFrame(proto.CmdBoardState, []byte{1, 2, 3})
	requireAck(t, sink.frames(), proto.CmdBoardState, 1)

	sink.reset()
	bad := wonBoard(t)
	bad[10] = 9 // not a cell value
	c.HandleFrame(proto.CmdBoardState, bad)
	requireAck(t, sink.frames(), proto.CmdBoardState, 1)
}

func TestBoardSyncRefusedDuringResultHold(t *testing.T) {
	c, sink, clock := newTestConsole(t)

	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	c.runPhase(framework.PhaseControl, clock)

	sink.reset()
	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	requireAck(t, sink.frames(), proto.CmdBoardState, 4)

	// Accepted again after the hold expires.
	clock.advance(ResultHoldTime + time.Second)
	sink.reset()
	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	requireAck(t, sink.frames(), proto.CmdBoardState, 0)
}

func TestResultProcessing(t *testing.T) {
	c, sink, clock := newTestConsole(t)
	display := c.Display.(*GridDisplay)

	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	sink.reset()
	c.runPhase(framework.PhaseControl, clock)

	require.Contains(t, display.Texts, "WIN")
	require.Equal(t, uint32(1), c.GameStats().Games)
	require.Equal(t, uint32(1), c.GameStats().BlackWins)
	require.True(t, hasCmd(sink.frames(), proto.CmdBoardState))

	// The same finished game is not folded in twice.
	c.runPhase(framework.PhaseControl, clock)
	require.Equal(t, uint32(1), c.GameStats().Games)
}

func TestBackToBackGamesBothProcessed(t *testing.T) {
	c, _, clock := newTestConsole(t)

	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	c.runPhase(framework.PhaseControl, clock)
	require.Equal(t, uint32(1), c.GameStats().Games)

	// Start over and finish a second game at the same move count.
	clock.advance(ResultHoldTime + time.Second)
	c.HandleFrame(proto.CmdGameConfig, nil)
	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	c.runPhase(framework.PhaseControl, clock)
	require.Equal(t, uint32(2), c.GameStats().Games)
	require.Equal(t, uint32(2), c.GameStats().BlackWins)
}

func TestChallengeSessionOverLink(t *testing.T) {
	c, sink, clock := newTestConsole(t)
	display := c.Display.(*GridDisplay)

	c.HandleFrame(proto.CmdModeSelect, encode(t, &msgs.ModeSelect{Mode: msgs.ModeChallenge}))
	frames := sink.frames()
	requireAck(t, frames, proto.CmdModeSelect, 0)
	var score msgs.ScoreUpdate
	require.NoError(t, score.UnmarshalBinary(lastOf(t, frames, proto.CmdScoreUpdate).data))
	require.Equal(t, msgs.ResultOngoing, score.Result)

	// A 64-0 win clears the score target in one game.
	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	sink.reset()
	c.runPhase(framework.PhaseControl, clock)

	require.NoError(t, score.UnmarshalBinary(lastOf(t, sink.frames(), proto.CmdScoreUpdate).data))
	require.Equal(t, msgs.ResultWin, score.Result)
	require.Equal(t, uint16(64), score.TotalScore)
	require.Equal(t, challenge.Won, c.Session().State())
	require.Contains(t, display.Texts, "WIN")
}

func TestGameControlOverLink(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	c.HandleFrame(proto.CmdGameControl, encode(t, &msgs.GameControl{Action: msgs.ActionStart}))
	frames := sink.frames()
	requireAck(t, frames, proto.CmdGameControl, 0)
	require.True(t, hasCmd(frames, proto.CmdBoardState))
	require.Equal(t, control.Playing, c.Control().State())

	// Starting twice is an invalid transition.
	sink.reset()
	c.HandleFrame(proto.CmdGameControl, encode(t, &msgs.GameControl{Action: msgs.ActionStart}))
	requireAck(t, sink.frames(), proto.CmdGameControl, 1)

	sink.reset()
	c.HandleFrame(proto.CmdGameControl, []byte{1})
	requireAck(t, sink.frames(), proto.CmdGameControl, 3)

	sink.reset()
	c.HandleFrame(proto.CmdGameControl, encode(t, &msgs.GameControl{Action: 0x77}))
	requireAck(t, sink.frames(), proto.CmdGameControl, 2)
}

func TestFreePlacementMode(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	c.HandleFrame(proto.CmdModeSelect, encode(t, &msgs.ModeSelect{Mode: msgs.ModeFree}))
	requireAck(t, sink.frames(), proto.CmdModeSelect, 0)
	require.Equal(t, msgs.ModeFree, c.Mode())

	// Color selection only works in free placement.
	sink.reset()
	c.HandleFrame(proto.CmdColorSelect, encode(t, &msgs.ColorSelect{Player: msgs.CellWhite}))
	requireAck(t, sink.frames(), proto.CmdColorSelect, 0)
	require.Equal(t, game.White, c.Board().CurrentPlayer())

	// Any empty or occupied cell is fair game.
	sink.reset()
	c.HandleFrame(proto.CmdMakeMove, []byte{0, 0, 2})
	requireAck(t, sink.frames(), proto.CmdMakeMove, 0)
	require.Equal(t, game.White, c.Board().Piece(0, 0))
}

func TestColorSelectRejections(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	c.HandleFrame(proto.CmdColorSelect, encode(t, &msgs.ColorSelect{Player: 9}))
	requireAck(t, sink.frames(), proto.CmdColorSelect, 1)

	sink.reset()
	c.HandleFrame(proto.CmdColorSelect, encode(t, &msgs.ColorSelect{Player: msgs.CellBlack}))
	requireAck(t, sink.frames(), proto.CmdColorSelect, 2)

	sink.reset()
	c.HandleFrame(proto.CmdColorSelect, []byte{1, 2})
	requireAck(t, sink.frames(), proto.CmdColorSelect, 3)
}

func TestTimedModeExpiryEndsGame(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	c.HandleFrame(proto.CmdModeSelect, encode(t, &msgs.ModeSelect{Mode: msgs.ModeTimed, TimeLimit: 120}))
	requireAck(t, sink.frames(), proto.CmdModeSelect, 0)
	limit, remaining, state := c.Timer()
	require.Equal(t, uint16(120), limit)
	require.Equal(t, uint16(120), remaining)
	require.Equal(t, msgs.TimerStopped, state)

	c.HandleFrame(proto.CmdGameControl, encode(t, &msgs.GameControl{Action: msgs.ActionStart}))
	c.HandleFrame(proto.CmdTimerUpdate, encode(t, &msgs.TimerUpdate{Remaining: 30, State: msgs.TimerRunning}))
	_, remaining, state = c.Timer()
	require.Equal(t, uint16(30), remaining)
	require.Equal(t, msgs.TimerRunning, state)
	require.Equal(t, control.Playing, c.Control().State())

	sink.reset()
	c.HandleFrame(proto.CmdTimerUpdate, encode(t, &msgs.TimerUpdate{Remaining: 0, State: msgs.TimerExpired}))
	requireAck(t, sink.frames(), proto.CmdTimerUpdate, 0)
	require.Equal(t, control.Ended, c.Control().State())
	require.True(t, c.Board().GameOver())
}

func TestLEDControl(t *testing.T) {
	c, sink, _ := newTestConsole(t)
	display := c.Display.(*GridDisplay)

	c.HandleFrame(proto.CmdLEDControl, []byte{2, 5, 10, 20, 30})
	requireAck(t, sink.frames(), proto.CmdLEDControl, 0)
	require.Equal(t, Color{R: 10, G: 20, B: 30}, display.Pixels[2][5])

	sink.reset()
	c.HandleFrame(proto.CmdLEDControl, []byte{9, 0, 1, 2})
	requireAck(t, sink.frames(), proto.CmdLEDControl, 2)

	sink.reset()
	c.HandleFrame(proto.CmdLEDControl, []byte{1, 1})
	requireAck(t, sink.frames(), proto.CmdLEDControl, 1)
}

func TestSystemInfoReply(t *testing.T) {
	c, sink, clock := newTestConsole(t)
	clock.advance(42 * time.Second)

	c.HandleFrame(proto.CmdSystemInfo, nil)
	var info msgs.SystemInfo
	require.NoError(t, info.UnmarshalBinary(lastOf(t, sink.frames(), proto.CmdSystemInfo).data))
	require.Equal(t, uint32(42), info.Uptime)
	require.Equal(t, Version, info.Version)
	require.NotZero(t, info.FreeMemory)
}

func TestHeartbeatEcho(t *testing.T) {
	c, sink, clock := newTestConsole(t)
	clock.advance(7 * time.Second)

	c.HandleFrame(proto.CmdHeartbeat, nil)
	var hb msgs.Heartbeat
	require.NoError(t, hb.UnmarshalBinary(lastOf(t, sink.frames(), proto.CmdHeartbeat).data))
	require.Equal(t, uint32(7), hb.Uptime)
}

func TestAIRequestSendsBoard(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	c.HandleFrame(proto.CmdAIRequest, nil)
	frames := sink.frames()
	requireAck(t, frames, proto.CmdAIRequest, 0)
	require.True(t, hasCmd(frames, proto.CmdBoardState))
}

func TestGameStatsRequest(t *testing.T) {
	c, sink, clock := newTestConsole(t)
	c.HandleFrame(proto.CmdBoardState, wonBoard(t))
	c.runPhase(framework.PhaseControl, clock)

	sink.reset()
	c.HandleFrame(proto.CmdGameStats, nil)
	var stats msgs.GameStats
	require.NoError(t, stats.UnmarshalBinary(lastOf(t, sink.frames(), proto.CmdGameStats).data))
	require.Equal(t, uint32(1), stats.TotalGames)
	require.Equal(t, uint32(1), stats.BlackWins)
}

func TestUnknownCommandReportsError(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	c.HandleFrame(proto.Command(0x7c), nil)
	f := lastOf(t, sink.frames(), proto.CmdError)
	require.Equal(t, []byte{1, 0x7c}, f.data)
}

func TestLifecycleKeys(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	press := func(key byte) {
		row, col, ok := keypad.Physical(key)
		require.True(t, ok)
		c.HandleKeyEvent(keypad.Event{
			Row: byte(row), Col: byte(col), Key: key, State: keypad.Pressed,
		})
	}

	press(keypad.Key1)
	require.Equal(t, control.Playing, c.Control().State())
	frames := sink.frames()
	require.True(t, hasCmd(frames, proto.CmdKeyEvent))
	require.True(t, hasCmd(frames, proto.CmdBoardState))

	press(keypad.KeyStar)
	require.Equal(t, control.Paused, c.Control().State())
	press(keypad.KeyHash)
	require.Equal(t, control.Playing, c.Control().State())
	press(keypad.KeyD)
	require.Equal(t, control.Ended, c.Control().State())
	require.True(t, c.Board().GameOver())
}

func TestCursorPlacement(t *testing.T) {
	c, sink, _ := newTestConsole(t)

	press := func(key byte) {
		c.HandleKeyEvent(keypad.Event{Key: key, State: keypad.Pressed})
	}

	press(keypad.Key1) // start
	press(keypad.Key2) // cursor up to (2,3)
	sink.reset()
	press(keypad.Key5) // place

	require.Equal(t, uint32(1), c.Board().MoveCount())
	require.Equal(t, game.Black, c.Board().Piece(2, 3))
	require.True(t, hasCmd(sink.frames(), proto.CmdBoardState))
}

func TestCursorPlacementInvalidFlashes(t *testing.T) {
	c, _, _ := newTestConsole(t)
	display := c.Display.(*GridDisplay)

	press := func(key byte) {
		c.HandleKeyEvent(keypad.Event{Key: key, State: keypad.Pressed})
	}

	press(keypad.Key1)
	press(keypad.Key8) // cursor down to (4,3), occupied by black
	press(keypad.Key5)

	require.Equal(t, uint32(0), c.Board().MoveCount())
	require.Equal(t, ColorRed, display.Pixels[4][3])
}

func TestReleasesDoNotTriggerActions(t *testing.T) {
	c, _, _ := newTestConsole(t)

	c.HandleKeyEvent(keypad.Event{Key: keypad.Key1, State: keypad.Released})
	require.Equal(t, control.Idle, c.Control().State())
}

func TestFreeModeKeyToggle(t *testing.T) {
	c, _, _ := newTestConsole(t)

	c.HandleKeyEvent(keypad.Event{Key: keypad.KeyC, State: keypad.Pressed})
	require.Equal(t, msgs.ModeFree, c.Mode())
	c.HandleKeyEvent(keypad.Event{Key: keypad.KeyC, State: keypad.Pressed})
	require.Equal(t, msgs.ModeNormal, c.Mode())
	require.Equal(t, game.Black, c.Board().CurrentPlayer())
}

func TestRenderBoard(t *testing.T) {
	c, _, clock := newTestConsole(t)
	display := c.Display.(*GridDisplay)

	c.runPhase(framework.PhaseActuate, clock)
	require.Equal(t, 1, display.Flushes)
	require.Equal(t, ColorOrange, display.Pixels[3][4])
	require.Equal(t, ColorOrange, display.Pixels[4][3])
	require.Equal(t, ColorWhite, display.Pixels[3][3])
	require.Equal(t, ColorWhite, display.Pixels[4][4])

	// Nothing changed, no second flush.
	c.runPhase(framework.PhaseActuate, clock)
	require.Equal(t, 1, display.Flushes)
}

func TestCursorBlinks(t *testing.T) {
	c, _, clock := newTestConsole(t)
	display := c.Display.(*GridDisplay)

	c.HandleKeyEvent(keypad.Event{Key: keypad.Key1, State: keypad.Pressed})
	c.HandleKeyEvent(keypad.Event{Key: keypad.Key2, State: keypad.Pressed})
	c.runPhase(framework.PhaseActuate, clock)
	require.Equal(t, ColorGreen, display.Pixels[2][3])

	clock.advance(CursorBlinkInterval)
	c.runPhase(framework.PhaseActuate, clock)
	require.Equal(t, ColorOff, display.Pixels[2][3])
}

func TestHeartbeatCadence(t *testing.T) {
	c, sink, clock := newTestConsole(t)

	c.runPhase(framework.PhaseMaintain, clock)
	frames := sink.frames()
	require.True(t, hasCmd(frames, proto.CmdHeartbeat))

	sink.reset()
	clock.advance(time.Second)
	c.runPhase(framework.PhaseMaintain, clock)
	require.False(t, hasCmd(sink.frames(), proto.CmdHeartbeat))

	clock.advance(HeartbeatInterval)
	c.runPhase(framework.PhaseMaintain, clock)
	require.True(t, hasCmd(sink.frames(), proto.CmdHeartbeat))
}

func TestScanPhaseDrainsKeypad(t *testing.T) {
	c, sink, clock := newTestConsole(t)

	pressed := false
	c.Keys = keypad.NewEngine(keypad.MatrixFunc(func(row, col int) bool {
		return pressed && row == 0 && col == 0 // key '1'
	}))
	c.Keys.Clock = clock.time

	pressed = true
	for i := 0; i < keypad.StableSamples+1; i++ {
		clock.advance(keypad.DefaultDebounceTime)
		c.runPhase(framework.PhaseSense, clock)
	}

	require.Equal(t, control.Playing, c.Control().State())
	require.True(t, hasCmd(sink.frames(), proto.CmdKeyEvent))
}
