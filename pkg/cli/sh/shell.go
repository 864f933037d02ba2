// Package sh provides the interactive host-side shell talking the
// framed console protocol over a hostlink transport.
package sh

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/othellokit/console.go/pkg/hostlink"
	"github.com/othellokit/console.go/pkg/proto"
	"github.com/othellokit/console.go/pkg/proto/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	AutoConnect bool
	Endpoint    string

	Shell   *ishell.Shell
	Session *Session
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "

	// ReplyTimeout bounds waiting for console responses.
	ReplyTimeout = 2 * time.Second
)

var (
	// flags

	evalOnly bool
	endpoint string

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.StringVar(&endpoint, "endpoint", endpoint, "Console endpoint: device path, tcp://, unix:// or ws:// URL.")
}

// AddCmds is used by other command providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(ep string) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Endpoint:    ep,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requiring a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Session is a live connection to a console.
type Session struct {
	Endpoint string
	Ctx      context.Context
	Cancel   func()
	Conn     io.ReadWriteCloser
	Link     *hostlink.Link

	// Print emits unsolicited console output, e.g. debug frames.
	Print func(format string, args ...interface{})

	lock    sync.Mutex
	acks    chan msgs.Ack
	replies map[proto.Command]chan []byte
	board   *msgs.BoardState
	score   *msgs.ScoreUpdate
}

// Connect dials the console endpoint and starts a session.
func (s *Shell) Connect(ep string) error {
	conn, err := hostlink.Dial(ep)
	if err != nil {
		return err
	}
	sess := &Session{
		Endpoint: ep,
		Conn:     conn,
		Print:    s.Shell.Printf,
		acks:     make(chan msgs.Ack, 8),
		replies:  make(map[proto.Command]chan []byte),
	}
	sess.Ctx, sess.Cancel = context.WithCancel(context.Background())
	sess.Link = hostlink.NewLink(conn, sess)
	if s.Session != nil {
		s.Session.Close()
	}
	s.Session = sess
	go sess.Link.Run(sess.Ctx)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ep))
	return nil
}

// Disconnect closes the current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Close tears the session down.
func (sess *Session) Close() {
	sess.Cancel()
	sess.Conn.Close()
}

// HandleFrame implements proto.Handler on the host side.
func (sess *Session) HandleFrame(cmd proto.Command, data []byte) {
	switch cmd {
	case proto.CmdAck:
		var ack msgs.Ack
		if ack.UnmarshalBinary(data) == nil {
			select {
			case sess.acks <- ack:
			default:
			}
		}
	case proto.CmdBoardState:
		var bs msgs.BoardState
		if bs.UnmarshalBinary(data) == nil {
			sess.lock.Lock()
			sess.board = &bs
			sess.lock.Unlock()
		}
		sess.deliver(cmd, data)
	case proto.CmdScoreUpdate:
		var su msgs.ScoreUpdate
		if su.UnmarshalBinary(data) == nil {
			sess.lock.Lock()
			sess.score = &su
			sess.lock.Unlock()
			sess.Print("score: won=%d lost=%d total=%d result=%d\n",
				su.BlackScore, su.WhiteScore, su.TotalScore, su.Result)
		}
	case proto.CmdDebugInfo:
		sess.Print("console: %s\n", string(data))
	case proto.CmdError:
		sess.Print("console error: % x\n", data)
	case proto.CmdKeyEvent:
		var ev msgs.KeyEvent
		if ev.UnmarshalBinary(data) == nil {
			sess.Print("key: row=%d col=%d state=%d\n", ev.Row, ev.Col, ev.State)
		}
	default:
		sess.deliver(cmd, data)
	}
}

func (sess *Session) deliver(cmd proto.Command, data []byte) {
	sess.lock.Lock()
	ch := sess.replies[cmd]
	delete(sess.replies, cmd)
	sess.lock.Unlock()
	if ch != nil {
		ch <- append([]byte(nil), data...)
	}
}

// Expect registers interest in the next frame of the given command.
func (sess *Session) Expect(cmd proto.Command) chan []byte {
	ch := make(chan []byte, 1)
	sess.lock.Lock()
	sess.replies[cmd] = ch
	sess.lock.Unlock()
	return ch
}

// AwaitAck waits for the acknowledge of cmd.
func (sess *Session) AwaitAck(cmd proto.Command) (msgs.Ack, error) {
	deadline := time.After(ReplyTimeout)
	for {
		select {
		case ack := <-sess.acks:
			if ack.Command == byte(cmd) {
				return ack, nil
			}
		case <-deadline:
			return msgs.Ack{}, fmt.Errorf("ack timeout for %v", cmd)
		}
	}
}

// AwaitReply waits for the next frame registered with expect.
func (sess *Session) AwaitReply(ch chan []byte) ([]byte, error) {
	select {
	case data := <-ch:
		return data, nil
	case <-time.After(ReplyTimeout):
		return nil, fmt.Errorf("reply timeout")
	}
}

// Board returns the last board snapshot received.
func (sess *Session) Board() *msgs.BoardState {
	sess.lock.Lock()
	defer sess.lock.Unlock()
	return sess.board
}

// Score returns the last score update received.
func (sess *Session) Score() *msgs.ScoreUpdate {
	sess.lock.Lock()
	defer sess.lock.Unlock()
	return sess.score
}

// DoAcked sends a frame and waits for its acknowledge, printing the
// outcome.
func DoAcked(c *ishell.Context, cmd proto.Command, data []byte) {
	sess := ShellFrom(c).Session
	if err := sess.Link.Send(cmd, data); err != nil {
		c.Err(err)
		return
	}
	ack, err := sess.AwaitAck(cmd)
	if err != nil {
		c.Err(err)
		return
	}
	if ack.OK() {
		c.Println("OK")
	} else {
		c.Printf("REFUSED (%d)\n", ack.Status)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Endpoint != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Endpoint)
		}
		if err := s.Connect(s.Endpoint); err != nil {
			log.Fatalf("connect %q failed: %v", s.Endpoint, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a console.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "ENDPOINT",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ep := s.Endpoint
			if len(c.Args) > 0 {
				ep = c.Args[0]
			}
			if ep == "" {
				c.Err(fmt.Errorf("ENDPOINT required"))
				return
			}
			if err := s.Connect(ep); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the current console.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s := New(endpoint)
	s.AutoConnect = endpoint != ""
	s.Run(flag.Args()...)
}
