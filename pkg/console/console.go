// Package console is the application glue of the firmware core. A
// Console owns the game state, consumes debounced keypad events,
// handles protocol frames from the host, renders the board to the
// display sink and drives the lifecycle and challenge engines. It
// participates in the control loop as a task for every phase.
package console

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/othellokit/console.go/pkg/console/challenge"
	"github.com/othellokit/console.go/pkg/console/control"
	"github.com/othellokit/console.go/pkg/framework"
	"github.com/othellokit/console.go/pkg/game"
	"github.com/othellokit/console.go/pkg/hostlink"
	"github.com/othellokit/console.go/pkg/keypad"
	"github.com/othellokit/console.go/pkg/proto"
	"github.com/othellokit/console.go/pkg/proto/msgs"
	"github.com/othellokit/console.go/pkg/telemetry"
)

// Timing of the periodic duties.
const (
	// HeartbeatInterval is the cadence of unsolicited heartbeats.
	HeartbeatInterval = 5 * time.Second
	// LinkReportInterval is the cadence of link statistics telemetry.
	LinkReportInterval = 15 * time.Second
	// ResultHoldTime keeps the game result on the display. Board
	// synchronization from the host is refused during the hold.
	ResultHoldTime = 5 * time.Second
	// CursorBlinkInterval toggles cursor visibility while playing.
	CursorBlinkInterval = 500 * time.Millisecond
)

// Console binds the engines together behind the host link.
type Console struct {
	Link *hostlink.Link

	// Keys is scanned and drained every sense phase when set.
	Keys *keypad.Engine
	// Display receives board renderings. Defaults to NopDisplay.
	Display Display
	// Reporter publishes telemetry when set.
	Reporter *telemetry.Reporter
	// Clock provides timestamps. Defaults to time.Now.
	Clock func() time.Time

	mu      sync.Mutex
	board   *game.State
	ctrl    *control.Machine
	session *challenge.Session
	stats   game.Stats

	mode           byte
	timeLimit      uint16
	timerRemaining uint16
	timerState     byte

	cursorRow     int
	cursorCol     int
	cursorVisible bool
	lastBlink     time.Time
	dirty         bool

	// pending holds the latest finished game until the control
	// phase picks it up. Frame handling must not block on result
	// processing, so the hand-off is a single-slot mailbox.
	pending      framework.Mailbox
	resultPosted bool
	resultUntil  time.Time

	started        time.Time
	lastHeartbeat  time.Time
	lastLinkReport time.Time

	flushes   uint32
	lastInfo  time.Time
	lastScans uint32
	lastFlush uint32
}

// New creates a Console over the given link, in normal mode with a
// fresh game.
func New(link *hostlink.Link) *Console {
	c := &Console{
		Link:          link,
		Display:       NopDisplay{},
		Clock:         time.Now,
		board:         game.NewGame(),
		ctrl:          control.NewMachine(),
		session:       challenge.NewSession(),
		mode:          msgs.ModeNormal,
		cursorRow:     3,
		cursorCol:     3,
		cursorVisible: true,
		dirty:         true,
	}
	c.started = c.Clock()
	c.lastInfo = c.started
	return c
}

// Board returns the game state the console plays on.
func (c *Console) Board() *game.State { return c.board }

// Control returns the lifecycle state machine.
func (c *Console) Control() *control.Machine { return c.ctrl }

// Session returns the challenge session.
func (c *Console) Session() *challenge.Session { return c.session }

// Mode returns the active game mode code.
func (c *Console) Mode() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Timer returns the configured limit and the last countdown state
// received from the host.
func (c *Console) Timer() (limit, remaining uint16, state byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLimit, c.timerRemaining, c.timerState
}

// GameStats returns a snapshot of the accumulated statistics.
func (c *Console) GameStats() game.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Uptime returns time since console creation.
func (c *Console) Uptime() time.Duration {
	return c.Clock().Sub(c.started)
}

// HandleFrame implements proto.Handler. It runs on the link goroutine.
func (c *Console) HandleFrame(cmd proto.Command, data []byte) {
	glog.V(3).Infof("frame %v len=%d", cmd, len(data))
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd {
	case proto.CmdMakeMove:
		c.handleMove(data)
	case proto.CmdGameConfig:
		c.board.Reset()
		c.resultPosted = false
		c.dirty = true
		c.ack(cmd, 0)
		c.sendBoard()
	case proto.CmdGameStats:
		c.sendErr(c.Link.SendGameStats(&c.stats))
	case proto.CmdSystemInfo:
		c.sendErr(c.Link.SendSystemInfo(c.systemInfo()))
	case proto.CmdAIRequest:
		c.sendBoard()
		c.ack(cmd, 0)
	case proto.CmdHeartbeat:
		c.sendErr(c.Link.SendHeartbeat(c.Clock().Sub(c.started)))
	case proto.CmdBoardState:
		c.handleBoardSync(data)
	case proto.CmdLEDControl:
		c.handleLED(data)
	case proto.CmdGameControl:
		c.handleControl(data)
	case proto.CmdModeSelect:
		c.handleModeSelect(data)
	case proto.CmdTimerUpdate:
		c.handleTimer(data)
	case proto.CmdColorSelect:
		c.handleColorSelect(data)
	default:
		c.sendErr(c.Link.SendError(1, []byte{byte(cmd)}))
	}
}

func (c *Console) handleMove(data []byte) {
	var mv msgs.Move
	if err := mv.UnmarshalBinary(data); err != nil {
		c.ack(proto.CmdMakeMove, 3) // invalid length
		return
	}
	row, col := int(mv.Row), int(mv.Col)

	if c.mode == msgs.ModeFree {
		player := game.Piece(mv.Player)
		if !player.Valid() {
			player = c.board.CurrentPlayer()
		}
		if row < 0 || row >= game.BoardSize || col < 0 || col >= game.BoardSize || c.board.GameOver() {
			c.ack(proto.CmdMakeMove, 2) // placement failed
			return
		}
		c.board.PlaceAnywhere(row, col, player)
		c.dirty = true
		c.ack(proto.CmdMakeMove, 0)
		c.checkGameOver()
		return
	}

	player := c.board.CurrentPlayer()
	if !c.board.IsValidMove(row, col, player) {
		c.ack(proto.CmdMakeMove, 1) // invalid move
		return
	}
	if c.board.MakeMove(row, col, player) == 0 {
		c.ack(proto.CmdMakeMove, 2) // move failed
		return
	}
	c.dirty = true
	c.ack(proto.CmdMakeMove, 0)
	c.checkGameOver()
}

func (c *Console) handleBoardSync(data []byte) {
	if c.Clock().Before(c.resultUntil) {
		// Result display in progress, refuse the overwrite.
		c.ack(proto.CmdBoardState, 4)
		return
	}
	var bs msgs.BoardState
	if err := bs.UnmarshalBinary(data); err != nil {
		c.ack(proto.CmdBoardState, 1) // invalid length
		return
	}
	if err := hostlink.ApplyBoard(&bs, c.board); err != nil {
		glog.Errorf("board sync rejected: %v", err)
		c.ack(proto.CmdBoardState, 1)
		return
	}
	c.dirty = true
	c.ack(proto.CmdBoardState, 0)
	glog.V(2).Infof("board synced from host: moves=%d player=%v",
		c.board.MoveCount(), c.board.CurrentPlayer())
	c.checkGameOver()
}

func (c *Console) handleLED(data []byte) {
	if len(data) < 4 {
		c.ack(proto.CmdLEDControl, 1) // invalid length
		return
	}
	row, col := int(data[0]), int(data[1])
	if row >= 8 || col >= 8 {
		c.ack(proto.CmdLEDControl, 2) // invalid coordinates
		return
	}
	color := Color{R: data[2], G: data[3]}
	if len(data) > 4 {
		color.B = data[4]
	}
	c.Display.SetPixel(row, col, color)
	c.Display.Flush()
	c.flushes++
	c.ack(proto.CmdLEDControl, 0)
}

func (c *Console) handleControl(data []byte) {
	var gc msgs.GameControl
	if err := gc.UnmarshalBinary(data); err != nil {
		c.ack(proto.CmdGameControl, 3) // invalid length
		return
	}
	switch err := c.ctrl.HandleAction(gc.Action, c.board); err {
	case nil:
		c.dirty = true
		c.ack(proto.CmdGameControl, 0)
		c.sendBoard()
		c.announceControl()
		c.checkGameOver()
	case control.ErrInvalidState:
		c.ack(proto.CmdGameControl, 1)
	default:
		c.ack(proto.CmdGameControl, 2)
	}
}

func (c *Console) handleModeSelect(data []byte) {
	var ms msgs.ModeSelect
	if err := ms.UnmarshalBinary(data); err != nil {
		c.ack(proto.CmdModeSelect, 4) // invalid length
		return
	}
	switch ms.Mode {
	case msgs.ModeNormal:
		if c.session.Active() {
			c.session.End()
		}
		c.mode = msgs.ModeNormal
		c.ack(proto.CmdModeSelect, 0)
	case msgs.ModeChallenge:
		c.session.Start()
		c.mode = msgs.ModeChallenge
		c.ack(proto.CmdModeSelect, 0)
		c.sendScore()
	case msgs.ModeTimed:
		c.mode = msgs.ModeTimed
		c.timeLimit = ms.TimeLimit
		c.timerRemaining = ms.TimeLimit
		c.timerState = msgs.TimerStopped
		c.ack(proto.CmdModeSelect, 0)
	case msgs.ModeFree:
		if c.session.Active() {
			c.session.End()
		}
		c.board.Reset()
		c.resultPosted = false
		c.mode = msgs.ModeFree
		c.dirty = true
		c.ack(proto.CmdModeSelect, 0)
		c.sendBoard()
	default:
		c.ack(proto.CmdModeSelect, 3) // invalid mode
	}
}

func (c *Console) handleTimer(data []byte) {
	var tu msgs.TimerUpdate
	if err := tu.UnmarshalBinary(data); err != nil {
		c.ack(proto.CmdTimerUpdate, 1) // invalid length
		return
	}
	c.timerRemaining = tu.Remaining
	c.timerState = tu.State
	c.ack(proto.CmdTimerUpdate, 0)
	if tu.State == msgs.TimerExpired && c.mode == msgs.ModeTimed &&
		c.ctrl.State() == control.Playing {
		// Time ran out, the position on the board decides the game.
		if err := c.ctrl.End(c.board); err == nil {
			c.dirty = true
			c.sendBoard()
			c.announceControl()
			c.checkGameOver()
		}
	}
}

func (c *Console) handleColorSelect(data []byte) {
	var cs msgs.ColorSelect
	if err := cs.UnmarshalBinary(data); err != nil {
		c.ack(proto.CmdColorSelect, 3) // invalid length
		return
	}
	if !game.Piece(cs.Player).Valid() {
		c.ack(proto.CmdColorSelect, 1) // invalid color
		return
	}
	if c.mode != msgs.ModeFree {
		c.ack(proto.CmdColorSelect, 2) // wrong mode
		return
	}
	c.board.SetTurn(game.Piece(cs.Player))
	c.ack(proto.CmdColorSelect, 0)
	c.sendBoard()
}

// HandleKeyEvent routes one debounced key transition. Exposed so a
// platform without the built-in scan task can feed events directly.
func (c *Console) HandleKeyEvent(ev keypad.Event) {
	c.sendErr(c.Link.SendKeyEvent(ev))
	if c.Reporter != nil {
		c.Reporter.PublishKey(ev)
	}
	if ev.State != keypad.Pressed {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pressKey(ev)
}

func (c *Console) pressKey(ev keypad.Event) {
	if handled, err := c.ctrl.HandleKey(ev.Key, c.board); handled {
		if err != nil {
			glog.V(2).Infof("key %c: %v", keypad.Char(ev.Key), err)
			return
		}
		c.dirty = true
		c.sendBoard()
		c.announceControl()
		c.checkGameOver()
		return
	}

	if ev.Key == keypad.KeyC {
		c.toggleFreeMode()
		return
	}

	if c.ctrl.State() != control.Playing {
		glog.V(2).Infof("key %c ignored outside PLAYING", keypad.Char(ev.Key))
		return
	}

	switch ev.Key {
	case keypad.Key2:
		c.moveCursor(-1, 0)
	case keypad.Key8:
		c.moveCursor(1, 0)
	case keypad.Key4:
		c.moveCursor(0, -1)
	case keypad.Key6:
		c.moveCursor(0, 1)
	case keypad.Key5:
		c.placeAtCursor()
	case keypad.Key9:
		c.sendBoard()
	}
}

func (c *Console) toggleFreeMode() {
	if c.mode == msgs.ModeFree {
		c.mode = msgs.ModeNormal
		c.board.SetTurn(game.Black)
	} else {
		if c.session.Active() {
			c.session.End()
		}
		c.mode = msgs.ModeFree
		c.board.Reset()
		c.resultPosted = false
	}
	c.dirty = true
	c.sendBoard()
}

func (c *Console) moveCursor(dr, dc int) {
	row, col := c.cursorRow+dr, c.cursorCol+dc
	if row < 0 || row >= game.BoardSize || col < 0 || col >= game.BoardSize {
		return
	}
	c.cursorRow, c.cursorCol = row, col
	c.cursorVisible = true
	c.lastBlink = c.Clock()
	c.dirty = true
}

func (c *Console) placeAtCursor() {
	row, col := c.cursorRow, c.cursorCol
	player := c.board.CurrentPlayer()

	if c.mode == msgs.ModeFree {
		if !c.board.GameOver() {
			c.board.PlaceAnywhere(row, col, player)
			c.dirty = true
			c.sendBoard()
			c.checkGameOver()
		}
		return
	}

	if !c.board.IsValidMove(row, col, player) {
		// Invalid move, flash red at the cursor until the next render.
		c.Display.SetPixel(row, col, ColorRed)
		c.Display.Flush()
		c.flushes++
		c.dirty = true
		return
	}
	if c.board.MakeMove(row, col, player) > 0 {
		c.dirty = true
		c.sendBoard()
		c.checkGameOver()
	}
}

// checkGameOver posts the finished game to the pending mailbox once.
// Seeing the board back in play rearms the hand-off, so each game
// posts exactly one result no matter how it was started.
func (c *Console) checkGameOver() {
	if !c.board.GameOver() {
		c.resultPosted = false
		return
	}
	if c.resultPosted {
		return
	}
	c.resultPosted = true
	c.pending.Post(c.board.Copy())
}

// Tick implements framework.Task for all four phases.
func (c *Console) Tick(tc framework.TickContext) error {
	switch tc.Phase() {
	case framework.PhaseSense:
		c.scanKeys()
	case framework.PhaseControl:
		c.drainResults(tc.Time())
	case framework.PhaseActuate:
		c.render(tc.Time())
	case framework.PhaseMaintain:
		c.maintain(tc.Time())
	}
	return nil
}

func (c *Console) scanKeys() {
	if c.Keys == nil {
		return
	}
	c.Keys.Scan()
	for {
		ev := c.Keys.GetKey()
		if ev.Key == keypad.NoKey {
			return
		}
		c.HandleKeyEvent(ev)
	}
}

func (c *Console) drainResults(now time.Time) {
	v, ok := c.pending.Take()
	if !ok {
		return
	}
	final := v.(*game.State)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Record(final)
	c.resultUntil = now.Add(ResultHoldTime)

	winner := final.Winner()
	switch winner {
	case game.Black:
		c.Display.ShowText("WIN", ColorGreen)
	case game.White:
		c.Display.ShowText("LOSE", ColorRed)
	default:
		c.Display.ShowText("DRAW", ColorYellow)
	}

	if c.session.Active() {
		outcome := c.session.ProcessResult(final)
		update := c.session.Status()
		c.sendErr(c.Link.SendScoreUpdate(update))
		if c.Reporter != nil {
			c.Reporter.PublishScore(update)
		}
		switch outcome {
		case challenge.Won:
			c.Display.ShowText("WIN", ColorGreen)
		case challenge.Lost:
			c.Display.ShowText("OVER", ColorRed)
		}
		glog.Infof("challenge: game %d done, score=%d state=%v",
			c.session.GamesPlayed(), c.session.TotalScore(), outcome)
	}

	// Hold the winner pattern on the matrix.
	switch winner {
	case game.Black:
		c.Display.Fill(ColorOrange)
	case game.White:
		c.Display.Fill(ColorWhite)
	default:
		for row := 0; row < game.BoardSize; row++ {
			for col := 0; col < game.BoardSize; col++ {
				if (row+col)%2 == 0 {
					c.Display.SetPixel(row, col, ColorOrange)
				} else {
					c.Display.SetPixel(row, col, ColorWhite)
				}
			}
		}
	}
	c.Display.Flush()
	c.flushes++

	c.sendErr(c.Link.SendBoardState(final))
	if c.Reporter != nil {
		c.Reporter.PublishBoard(final)
	}

	// Re-render the live board once the hold expires.
	c.dirty = true
}

func (c *Console) render(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Before(c.resultUntil) {
		return
	}
	playing := c.ctrl.State() == control.Playing
	if playing && now.Sub(c.lastBlink) >= CursorBlinkInterval {
		c.cursorVisible = !c.cursorVisible
		c.lastBlink = now
		c.dirty = true
	}
	if !c.dirty {
		return
	}
	c.dirty = false

	c.Display.Clear()
	for row := 0; row < game.BoardSize; row++ {
		for col := 0; col < game.BoardSize; col++ {
			switch c.board.Piece(row, col) {
			case game.Black:
				c.Display.SetPixel(row, col, ColorOrange)
			case game.White:
				c.Display.SetPixel(row, col, ColorWhite)
			}
		}
	}
	if playing && c.cursorVisible && c.board.Piece(c.cursorRow, c.cursorCol) == game.Empty {
		c.Display.SetPixel(c.cursorRow, c.cursorCol, ColorGreen)
	}
	c.Display.Flush()
	c.flushes++

	if c.Reporter != nil {
		c.Reporter.PublishBoard(c.board)
	}
}

func (c *Console) maintain(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastHeartbeat) >= HeartbeatInterval {
		c.lastHeartbeat = now
		c.sendErr(c.Link.SendHeartbeat(now.Sub(c.started)))
	}
	if c.Reporter != nil && now.Sub(c.lastLinkReport) >= LinkReportInterval {
		c.lastLinkReport = now
		c.Reporter.PublishLink(c.Link.Stats(), now.Sub(c.started))
	}
}

func (c *Console) systemInfo() *msgs.SystemInfo {
	now := c.Clock()
	elapsed := now.Sub(c.lastInfo)

	var scanRate uint16
	if c.Keys != nil {
		scans := c.Keys.Stats().Scans
		scanRate = rate(scans-c.lastScans, elapsed)
		c.lastScans = scans
	}
	flushRate := rate(c.flushes-c.lastFlush, elapsed)
	c.lastFlush = c.flushes
	c.lastInfo = now

	return &msgs.SystemInfo{
		Uptime:         uint32(now.Sub(c.started) / time.Second),
		Version:        Version,
		FreeMemory:     freeMemory(),
		KeypadScanRate: scanRate,
		DisplayRate:    flushRate,
	}
}

func (c *Console) announceControl() {
	c.sendErr(c.Link.SendDebug("Game State: " + c.ctrl.State().String()))
}

func (c *Console) sendBoard() {
	c.sendErr(c.Link.SendBoardState(c.board))
}

func (c *Console) sendScore() {
	update := c.session.Status()
	c.sendErr(c.Link.SendScoreUpdate(update))
	if c.Reporter != nil {
		c.Reporter.PublishScore(update)
	}
}

func (c *Console) ack(cmd proto.Command, status byte) {
	c.sendErr(c.Link.SendAck(cmd, status))
}

func (c *Console) sendErr(err error) {
	if err != nil {
		glog.Errorf("host link send: %v", err)
	}
}
