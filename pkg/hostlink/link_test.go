package hostlink

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/othellokit/console.go/pkg/game"
	"github.com/othellokit/console.go/pkg/keypad"
	"github.com/othellokit/console.go/pkg/proto"
	"github.com/othellokit/console.go/pkg/proto/msgs"
)

type testStream struct {
	byteCh chan byte
	out    bytes.Buffer
	lock   sync.Mutex
}

func newTestStream() *testStream {
	return &testStream{byteCh: make(chan byte, 1024)}
}

func (s *testStream) Read(p []byte) (int, error) {
	b, ok := <-s.byteCh
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (s *testStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.out.Write(p)
}

func (s *testStream) inject(t *testing.T, cmd proto.Command, data []byte) {
	frame := proto.Frame{Command: cmd, Data: data}
	buf, err := frame.Encode()
	require.NoError(t, err)
	for _, b := range buf {
		s.byteCh <- b
	}
}

// written re-parses everything the link sent so far.
func (s *testStream) written(t *testing.T) []recordedFrame {
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

type recordedFrame struct {
	cmd  proto.Command
	data []byte
}

type frameRecorder struct {
	lock   sync.Mutex
	frames []recordedFrame
	notify chan struct{}
}

func (r *frameRecorder) HandleFrame(cmd proto.Command, data []byte) {
	cp := append([]byte(nil), data...)
	r.lock.Lock()
	r.frames = append(r.frames, recordedFrame{cmd: cmd, data: cp})
	r.lock.Unlock()
	if r.notify != nil {
		select {
		case r.notify <- struct{}{}:
		default:
		}
	}
}

func TestLinkRunDispatchesFrames(t *testing.T) {
	stream := newTestStream()
	rec := &frameRecorder{notify: make(chan struct{}, 1)}
	link := NewLink(stream, rec)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- link.Run(ctx) }()

	stream.inject(t, proto.CmdHeartbeat, []byte{1, 0, 0, 0})
	select {
	case <-rec.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("frame never dispatched")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)

	rec.lock.Lock()
	defer rec.lock.Unlock()
	require.Len(t, rec.frames, 1)
	require.Equal(t, proto.CmdHeartbeat, rec.frames[0].cmd)
	require.Equal(t, uint32(1), link.Stats().Received)
}

func TestLinkRunStopsOnStreamEnd(t *testing.T) {
	stream := newTestStream()
	link := NewLink(stream, nil)
	close(stream.byteCh)
	require.Equal(t, io.EOF, link.Run(context.Background()))
}

func TestLinkSenders(t *testing.T) {
	stream := newTestStream()
	link := NewLink(stream, nil)
	link.Epoch = time.Unix(0, 0)

	st := game.NewGame()
	require.NoError(t, link.SendBoardState(st))
	require.NoError(t, link.SendKeyEvent(keypad.Event{
		Row: 1, Col: 2, State: keypad.Pressed, Key: keypad.Key6,
	}))
	require.NoError(t, link.SendHeartbeat(90*time.Second))
	require.NoError(t, link.SendAck(proto.CmdMakeMove, proto.StatusOK))

	frames := stream.written(t)
	require.Len(t, frames, 4)

	require.Equal(t, proto.CmdBoardState, frames[0].cmd)
	var board msgs.BoardState
	require.NoError(t, board.UnmarshalBinary(frames[0].data))
	require.Equal(t, byte(game.Black), board.CurrentPlayer)
	require.Equal(t, byte(2), board.BlackCount)
	require.Equal(t, byte(2), board.WhiteCount)
	require.False(t, board.GameOver)

	require.Equal(t, proto.CmdKeyEvent, frames[1].cmd)
	var ev msgs.KeyEvent
	require.NoError(t, ev.UnmarshalBinary(frames[1].data))
	require.Equal(t, byte(keypad.Key6), ev.Logical)
	require.Equal(t, msgs.KeyPressed, ev.State)

	require.Equal(t, proto.CmdHeartbeat, frames[2].cmd)
	var hb msgs.Heartbeat
	require.NoError(t, hb.UnmarshalBinary(frames[2].data))
	require.Equal(t, uint32(90), hb.Uptime)

	require.Equal(t, proto.CmdAck, frames[3].cmd)
	require.Equal(t, uint32(4), link.Stats().Sent)
}

func TestLinkTimestamp(t *testing.T) {
	link := NewLink(newTestStream(), nil)
	link.Epoch = time.Unix(100, 0)
	require.Equal(t, uint32(0), link.Timestamp(time.Unix(50, 0)))
	require.Equal(t, uint32(1500), link.Timestamp(time.Unix(101, int64(500*time.Millisecond))))
}

func TestBoardCodecRoundTrip(t *testing.T) {
	st := game.NewGame()
	st.MakeMove(2, 3, game.Black)

	m := BoardFromState(st)
	restored := game.NewGame()
	require.NoError(t, ApplyBoard(m, restored))

	for row := 0; row < game.BoardSize; row++ {
		for col := 0; col < game.BoardSize; col++ {
			require.Equal(t, st.Piece(row, col), restored.Piece(row, col))
		}
	}
	require.Equal(t, st.CurrentPlayer(), restored.CurrentPlayer())
	require.Equal(t, st.MoveCount(), restored.MoveCount())
	require.False(t, restored.GameOver())
}

func TestApplyBoardRejectsCorruption(t *testing.T) {
	var m msgs.BoardState
	m.Cells[0] = 9
	m.CurrentPlayer = byte(game.Black)
	st := game.NewGame()
	require.Error(t, ApplyBoard(&m, st))
}

func TestGameStatsCodec(t *testing.T) {
	stats := &game.Stats{
		Games:         3,
		BlackWins:     2,
		WhiteWins:     1,
		TotalMoves:    120,
		Longest:       60,
		Shortest:      20,
		TotalDuration: 90 * time.Second,
	}
	m := GameStatsFromStats(stats)
	require.Equal(t, uint32(3), m.TotalGames)
	require.Equal(t, uint32(90), m.TotalTime)
}
