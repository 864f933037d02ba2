// Package othello provides the shell commands driving a console.
package othello

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/othellokit/console.go/pkg/cli/sh"
	"github.com/othellokit/console.go/pkg/proto"
	"github.com/othellokit/console.go/pkg/proto/msgs"
)

func renderBoard(c *ishell.Context, bs *msgs.BoardState) {
	chars := [...]byte{'.', 'B', 'W'}
	c.Println("  0 1 2 3 4 5 6 7")
	for row := 0; row < 8; row++ {
		line := make([]byte, 0, 18)
		line = append(line, byte('0'+row), ' ')
		for col := 0; col < 8; col++ {
			cell := bs.Cells[row*8+col]
			ch := byte('?')
			if int(cell) < len(chars) {
				ch = chars[cell]
			}
			line = append(line, ch, ' ')
		}
		c.Println(string(line))
	}
	player := "black"
	if bs.CurrentPlayer == msgs.CellWhite {
		player = "white"
	}
	c.Printf("to move: %s  B:%d W:%d  moves:%d", player, bs.BlackCount, bs.WhiteCount, bs.MoveCount)
	if bs.GameOver {
		c.Printf("  GAME OVER")
	}
	c.Println()
}

func parseByte(c *ishell.Context, arg, name string, max byte) (byte, bool) {
	v, err := strconv.ParseUint(arg, 10, 8)
	if err != nil || byte(v) > max {
		c.Err(fmt.Errorf("invalid %s: %s", name, arg))
		return 0, false
	}
	return byte(v), true
}

var (
	// NewGameCmd resets the console to a fresh game.
	NewGameCmd = ishell.Cmd{
		Name:    "newgame",
		Aliases: []string{"n"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoAcked(c, proto.CmdGameConfig, nil)
		}),
	}

	// MoveCmd plays a move.
	MoveCmd = ishell.Cmd{
		Name:    "move",
		Aliases: []string{"m"},
		Help:    "ROW COL",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("ROW COL required"))
				return
			}
			row, ok := parseByte(c, c.Args[0], "ROW", 7)
			if !ok {
				return
			}
			col, ok := parseByte(c, c.Args[1], "COL", 7)
			if !ok {
				return
			}
			sh.DoAcked(c, proto.CmdMakeMove, []byte{row, col, 0})
		}),
	}

	// BoardCmd fetches and renders the board.
	BoardCmd = ishell.Cmd{
		Name:    "board",
		Aliases: []string{"b"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sess := sh.ShellFrom(c).Session
			ch := sess.Expect(proto.CmdBoardState)
			if err := sess.Link.Send(proto.CmdAIRequest, nil); err != nil {
				c.Err(err)
				return
			}
			data, err := sess.AwaitReply(ch)
			if err != nil {
				c.Err(err)
				return
			}
			var bs msgs.BoardState
			if err := bs.UnmarshalBinary(data); err != nil {
				c.Err(err)
				return
			}
			renderBoard(c, &bs)
		}),
	}

	// PassCmd passes the turn by syncing the board with the player
	// switched. The console has no dedicated pass frame.
	PassCmd = ishell.Cmd{
		Name: "pass",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sess := sh.ShellFrom(c).Session
			bs := sess.Board()
			if bs == nil {
				c.Err(fmt.Errorf("no board snapshot yet, run 'board' first"))
				return
			}
			next := *bs
			if next.CurrentPlayer == msgs.CellWhite {
				next.CurrentPlayer = msgs.CellBlack
			} else {
				next.CurrentPlayer = msgs.CellWhite
			}
			data, err := next.MarshalBinary()
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoAcked(c, proto.CmdBoardState, data)
		}),
	}

	// ModeCmd selects the game mode.
	ModeCmd = ishell.Cmd{
		Name: "mode",
		Help: "normal|challenge|timed [SECONDS]|free",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("MODE required"))
				return
			}
			ms := msgs.ModeSelect{}
			switch c.Args[0] {
			case "normal":
				ms.Mode = msgs.ModeNormal
			case "challenge":
				ms.Mode = msgs.ModeChallenge
			case "timed":
				ms.Mode = msgs.ModeTimed
				if len(c.Args) > 1 {
					v, err := strconv.ParseUint(c.Args[1], 10, 16)
					if err != nil {
						c.Err(fmt.Errorf("invalid SECONDS: %s", c.Args[1]))
						return
					}
					ms.TimeLimit = uint16(v)
				}
			case "free":
				ms.Mode = msgs.ModeFree
			default:
				c.Err(fmt.Errorf("unknown mode: %s", c.Args[0]))
				return
			}
			data, _ := ms.MarshalBinary()
			sh.DoAcked(c, proto.CmdModeSelect, data)
		}),
	}

	// ControlCmd drives the game lifecycle.
	ControlCmd = ishell.Cmd{
		Name: "control",
		Help: "start|pause|resume|end|reset",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ACTION required"))
				return
			}
			actions := map[string]byte{
				"start":  msgs.ActionStart,
				"pause":  msgs.ActionPause,
				"resume": msgs.ActionResume,
				"end":    msgs.ActionEnd,
				"reset":  msgs.ActionReset,
			}
			action, ok := actions[c.Args[0]]
			if !ok {
				c.Err(fmt.Errorf("unknown action: %s", c.Args[0]))
				return
			}
			gc := msgs.GameControl{Action: action}
			data, _ := gc.MarshalBinary()
			sh.DoAcked(c, proto.CmdGameControl, data)
		}),
	}

	// ColorCmd selects the side to place in free placement mode.
	ColorCmd = ishell.Cmd{
		Name: "color",
		Help: "black|white",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("COLOR required"))
				return
			}
			cs := msgs.ColorSelect{}
			switch c.Args[0] {
			case "black":
				cs.Player = msgs.CellBlack
			case "white":
				cs.Player = msgs.CellWhite
			default:
				c.Err(fmt.Errorf("unknown color: %s", c.Args[0]))
				return
			}
			data, _ := cs.MarshalBinary()
			sh.DoAcked(c, proto.CmdColorSelect, data)
		}),
	}

	// TimerCmd pushes a countdown update for timed mode.
	TimerCmd = ishell.Cmd{
		Name: "timer",
		Help: "SECONDS stopped|running|paused|expired",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("SECONDS and STATE required"))
				return
			}
			v, err := strconv.ParseUint(c.Args[0], 10, 16)
			if err != nil {
				c.Err(fmt.Errorf("invalid SECONDS: %s", c.Args[0]))
				return
			}
			states := map[string]byte{
				"stopped": msgs.TimerStopped,
				"running": msgs.TimerRunning,
				"paused":  msgs.TimerPaused,
				"expired": msgs.TimerExpired,
			}
			state, ok := states[c.Args[1]]
			if !ok {
				c.Err(fmt.Errorf("unknown state: %s", c.Args[1]))
				return
			}
			tu := msgs.TimerUpdate{Remaining: uint16(v), State: state}
			data, _ := tu.MarshalBinary()
			sh.DoAcked(c, proto.CmdTimerUpdate, data)
		}),
	}

	// LedCmd sets one matrix pixel.
	LedCmd = ishell.Cmd{
		Name: "led",
		Help: "ROW COL R G B",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 5 {
				c.Err(fmt.Errorf("ROW COL R G B required"))
				return
			}
			buf := make([]byte, 5)
			names := [...]string{"ROW", "COL", "R", "G", "B"}
			for i, name := range names {
				v, ok := parseByte(c, c.Args[i], name, 255)
				if !ok {
					return
				}
				buf[i] = v
			}
			sh.DoAcked(c, proto.CmdLEDControl, buf)
		}),
	}

	// StatsCmd fetches lifetime game statistics.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sess := sh.ShellFrom(c).Session
			ch := sess.Expect(proto.CmdGameStats)
			if err := sess.Link.Send(proto.CmdGameStats, nil); err != nil {
				c.Err(err)
				return
			}
			data, err := sess.AwaitReply(ch)
			if err != nil {
				c.Err(err)
				return
			}
			var gs msgs.GameStats
			if err := gs.UnmarshalBinary(data); err != nil {
				c.Err(err)
				return
			}
			c.Printf("games:%d black:%d white:%d draws:%d moves:%d longest:%d shortest:%d time:%ds\n",
				gs.TotalGames, gs.BlackWins, gs.WhiteWins, gs.Draws,
				gs.TotalMoves, gs.LongestGame, gs.ShortestGame, gs.TotalTime)
		}),
	}

	// SysInfoCmd fetches console system information.
	SysInfoCmd = ishell.Cmd{
		Name:    "sysinfo",
		Aliases: []string{"si"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sess := sh.ShellFrom(c).Session
			ch := sess.Expect(proto.CmdSystemInfo)
			if err := sess.Link.Send(proto.CmdSystemInfo, nil); err != nil {
				c.Err(err)
				return
			}
			data, err := sess.AwaitReply(ch)
			if err != nil {
				c.Err(err)
				return
			}
			var si msgs.SystemInfo
			if err := si.UnmarshalBinary(data); err != nil {
				c.Err(err)
				return
			}
			c.Printf("version %d.%d.%d.%d  uptime:%ds  free:%dB  scan:%d/s  display:%d/s\n",
				si.Version[0], si.Version[1], si.Version[2], si.Version[3],
				si.Uptime, si.FreeMemory, si.KeypadScanRate, si.DisplayRate)
		}),
	}

	// PingCmd checks console liveness.
	PingCmd = ishell.Cmd{
		Name: "ping",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sess := sh.ShellFrom(c).Session
			ch := sess.Expect(proto.CmdHeartbeat)
			if err := sess.Link.Send(proto.CmdHeartbeat, nil); err != nil {
				c.Err(err)
				return
			}
			data, err := sess.AwaitReply(ch)
			if err != nil {
				c.Err(err)
				return
			}
			var hb msgs.Heartbeat
			if err := hb.UnmarshalBinary(data); err != nil {
				c.Err(err)
				return
			}
			c.Printf("alive, uptime %ds\n", hb.Uptime)
		}),
	}
)

func init() {
	sh.AddCmds(
		&NewGameCmd,
		&MoveCmd,
		&BoardCmd,
		&PassCmd,
		&ModeCmd,
		&ControlCmd,
		&ColorCmd,
		&TimerCmd,
		&LedCmd,
		&StatsCmd,
		&SysInfoCmd,
		&PingCmd,
	)
}
