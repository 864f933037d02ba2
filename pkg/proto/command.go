package proto

// Command identifies the type of a frame.
type Command byte

// Command codes.
const (
	CmdBoardState  Command = 0x01
	CmdMakeMove    Command = 0x02
	CmdGameConfig  Command = 0x03
	CmdGameStats   Command = 0x04
	CmdSystemInfo  Command = 0x05
	CmdAIRequest   Command = 0x06
	CmdHeartbeat   Command = 0x07
	CmdAck         Command = 0x08
	CmdDebugInfo   Command = 0x09
	CmdKeyEvent    Command = 0x0a
	CmdLEDControl  Command = 0x0b
	CmdGameControl Command = 0x0c
	CmdModeSelect  Command = 0x0d
	CmdScoreUpdate Command = 0x0e
	CmdTimerUpdate Command = 0x0f
	CmdColorSelect Command = 0x10
	CmdError       Command = 0xff
)

var commandNames = map[Command]string{
	CmdBoardState:  "board-state",
	CmdMakeMove:    "make-move",
	CmdGameConfig:  "game-config",
	CmdGameStats:   "game-stats",
	CmdSystemInfo:  "system-info",
	CmdAIRequest:   "ai-request",
	CmdHeartbeat:   "heartbeat",
	CmdAck:         "ack",
	CmdDebugInfo:   "debug-info",
	CmdKeyEvent:    "key-event",
	CmdLEDControl:  "led-control",
	CmdGameControl: "game-control",
	CmdModeSelect:  "mode-select",
	CmdScoreUpdate: "score-update",
	CmdTimerUpdate: "timer-update",
	CmdColorSelect: "color-select",
	CmdError:       "error",
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Ack status codes, sent back for every processed frame.
const (
	StatusOK          byte = 0x00
	StatusInvalidMove byte = 0x01
	StatusBadPayload  byte = 0x02
	StatusRejected    byte = 0x03
)
