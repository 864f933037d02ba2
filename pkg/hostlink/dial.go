package hostlink

import (
	"io"
	"net"
	"os"
	"strings"

	"golang.org/x/net/websocket"
)

// Dial connects to a host endpoint. Supported forms:
//
//	tcp://host:port
//	unix:///path/to.sock
//	ws://host:port/path (websocket)
//	/dev/ttyUSB0 (any plain path, opened read/write)
func Dial(endpoint string) (io.ReadWriteCloser, error) {
	switch {
	case strings.HasPrefix(endpoint, "tcp://"):
		return net.Dial("tcp", endpoint[len("tcp://"):])
	case strings.HasPrefix(endpoint, "unix://"):
		return net.Dial("unix", endpoint[len("unix://"):])
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return websocket.Dial(endpoint, "", "http://localhost/")
	default:
		return os.OpenFile(endpoint, os.O_RDWR, 0)
	}
}
