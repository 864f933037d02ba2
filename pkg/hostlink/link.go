package hostlink

import (
	"context"
	"io"
	"time"

	"github.com/othellokit/console.go/pkg/game"
	"github.com/othellokit/console.go/pkg/keypad"
	"github.com/othellokit/console.go/pkg/proto"
	"github.com/othellokit/console.go/pkg/proto/msgs"
)

// DefaultMaintenanceInterval is the cadence of receive-timeout checks.
const DefaultMaintenanceInterval = 100 * time.Millisecond

// Link pumps protocol frames over a byte stream.
type Link struct {
	Receiver *proto.Receiver
	Sender   *proto.Sender

	// MaintenanceInterval is the cadence of Receiver.Tick calls
	// while Run is active.
	MaintenanceInterval time.Duration

	// Epoch anchors the millisecond timestamps stamped on outbound
	// events. Defaults to link creation time.
	Epoch time.Time

	rw io.ReadWriter
}

// NewLink creates a Link over rw delivering received frames to h.
func NewLink(rw io.ReadWriter, h proto.Handler) *Link {
	return &Link{
		Receiver:            proto.NewReceiver(h),
		Sender:              proto.NewSender(rw),
		MaintenanceInterval: DefaultMaintenanceInterval,
		Epoch:               time.Now(),
		rw:                  rw,
	}
}

// Run pumps received bytes until the context is canceled or the
// stream fails. Frame dispatch happens on this goroutine.
func (l *Link) Run(ctx context.Context) error {
	interval := l.MaintenanceInterval
	if interval <= 0 {
		interval = DefaultMaintenanceInterval
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case b := <-byteCh:
			l.Receiver.ProcessByte(b)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Receiver.Tick()
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			n, err := l.rw.Read(buf)
			if err != nil {
				errCh <- err
				return
			}
			if n > 0 {
				byteCh <- buf[0]
			}
		}
	}
}

// Stats merges the receive and transmit counters.
func (l *Link) Stats() proto.Stats {
	stats := l.Receiver.Stats()
	stats.Sent = l.Sender.Sent()
	return stats
}

// ResetStats zeroes all counters.
func (l *Link) ResetStats() {
	l.Receiver.ResetStats()
	l.Sender.ResetStats()
}

// Timestamp renders t as milliseconds since the link epoch.
func (l *Link) Timestamp(t time.Time) uint32 {
	if t.Before(l.Epoch) {
		return 0
	}
	return uint32(t.Sub(l.Epoch) / time.Millisecond)
}

// Send writes one raw frame.
func (l *Link) Send(cmd proto.Command, data []byte) error {
	return l.Sender.Send(cmd, data)
}

// SendAck acknowledges a processed frame.
func (l *Link) SendAck(orig proto.Command, status byte) error {
	return l.Sender.SendAck(orig, status)
}

// SendError reports a protocol-level error.
func (l *Link) SendError(code byte, detail []byte) error {
	return l.Sender.SendError(code, detail)
}

// SendBoardState sends the full game snapshot.
func (l *Link) SendBoardState(st *game.State) error {
	return l.send(proto.CmdBoardState, BoardFromState(st))
}

// SendMove requests a placement.
func (l *Link) SendMove(row, col int, player game.Piece) error {
	return l.send(proto.CmdMakeMove, &msgs.Move{
		Row:       byte(row),
		Col:       byte(col),
		Player:    byte(player),
		Timestamp: l.Timestamp(time.Now()),
	})
}

// SendKeyEvent reports a debounced key transition.
func (l *Link) SendKeyEvent(ev keypad.Event) error {
	return l.send(proto.CmdKeyEvent, &msgs.KeyEvent{
		Row:       ev.Row,
		Col:       ev.Col,
		State:     byte(ev.State),
		Logical:   ev.Key,
		Timestamp: l.Timestamp(ev.Time),
	})
}

// SendHeartbeat proves liveness.
func (l *Link) SendHeartbeat(uptime time.Duration) error {
	return l.send(proto.CmdHeartbeat, &msgs.Heartbeat{Uptime: uint32(uptime / time.Second)})
}

// SendSystemInfo describes the running console.
func (l *Link) SendSystemInfo(info *msgs.SystemInfo) error {
	return l.send(proto.CmdSystemInfo, info)
}

// SendDebug sends a free-form debug message, truncated to the frame
// payload limit.
func (l *Link) SendDebug(message string) error {
	if len(message) > proto.MaxDataLen {
		message = message[:proto.MaxDataLen]
	}
	return l.Sender.Send(proto.CmdDebugInfo, []byte(message))
}

// SendGameControl drives the game lifecycle.
func (l *Link) SendGameControl(action byte) error {
	return l.send(proto.CmdGameControl, &msgs.GameControl{
		Action:    action,
		Timestamp: l.Timestamp(time.Now()),
	})
}

// SendModeSelect switches the game mode.
func (l *Link) SendModeSelect(mode byte, timeLimit uint16) error {
	return l.send(proto.CmdModeSelect, &msgs.ModeSelect{Mode: mode, TimeLimit: timeLimit})
}

// SendScoreUpdate reports challenge progress.
func (l *Link) SendScoreUpdate(update *msgs.ScoreUpdate) error {
	return l.send(proto.CmdScoreUpdate, update)
}

// SendTimerUpdate carries the timed mode countdown.
func (l *Link) SendTimerUpdate(remaining uint16, state byte) error {
	return l.send(proto.CmdTimerUpdate, &msgs.TimerUpdate{Remaining: remaining, State: state})
}

// SendColorSelect picks the acting color in free placement mode.
func (l *Link) SendColorSelect(player game.Piece) error {
	return l.send(proto.CmdColorSelect, &msgs.ColorSelect{Player: byte(player)})
}

// SendGameStats reports lifetime game counters.
func (l *Link) SendGameStats(stats *game.Stats) error {
	return l.send(proto.CmdGameStats, GameStatsFromStats(stats))
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

func (l *Link) send(cmd proto.Command, m binaryMarshaler) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	return l.Sender.Send(cmd, data)
}
