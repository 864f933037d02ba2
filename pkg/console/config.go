package console

import (
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/othellokit/console.go/pkg/framework"
	"github.com/othellokit/console.go/pkg/hostlink"
	"github.com/othellokit/console.go/pkg/keypad"
	"github.com/othellokit/console.go/pkg/telemetry"
)

// Config defines the configuration for the console daemon.
type Config struct {
	Endpoint      string
	MQTTServer    string
	DebounceTime  time.Duration
	LongPressTime time.Duration
}

// DefaultEndpoint is where the host link connects by default.
const DefaultEndpoint = "tcp://127.0.0.1:9686"

var defaultConfig = Config{
	Endpoint:      DefaultEndpoint,
	DebounceTime:  keypad.DefaultDebounceTime,
	LongPressTime: keypad.DefaultLongPressTime,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Endpoint, "endpoint", defaultConfig.Endpoint,
		"Host link endpoint: device path, tcp://, unix:// or ws:// URL.")
	flag.StringVar(&defaultConfig.MQTTServer, "mqtt-server", defaultConfig.MQTTServer,
		"MQTT server URL for telemetry, empty to disable.")
	flag.DurationVar(&defaultConfig.DebounceTime, "key-debounce", defaultConfig.DebounceTime,
		"Keypad debounce time.")
	flag.DurationVar(&defaultConfig.LongPressTime, "key-long-press", defaultConfig.LongPressTime,
		"Keypad long press threshold.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConsole dials the host link and assembles the Console.
func (c *Config) NewConsole() (*Console, error) {
	conn, err := hostlink.Dial(c.Endpoint)
	if err != nil {
		return nil, err
	}
	link := hostlink.NewLink(conn, nil)
	cns := New(link)
	link.Receiver.Handler = cns

	if c.MQTTServer != "" {
		meta := telemetry.Meta{
			ID:      DeviceID(),
			Version: fmt.Sprintf("%d.%d.%d", Version[0], Version[1], Version[2]),
			Started: time.Now().UTC().Format(time.RFC3339),
		}
		reporter, err := telemetry.NewReporter(c.MQTTServer, meta)
		if err != nil {
			conn.Close()
			return nil, err
		}
		cns.Reporter = reporter
	}
	return cns, nil
}

// MustNewConsole creates the Console or exits on error.
func (c *Config) MustNewConsole() *Console {
	cns, err := c.NewConsole()
	if err != nil {
		glog.Exitf("console setup: %v", err)
	}
	return cns
}

// NewKeypad creates a keypad engine over the platform matrix with the
// configured timings.
func (c *Config) NewKeypad(m keypad.Matrix) (*keypad.Engine, error) {
	e := keypad.NewEngine(m)
	if err := e.SetDebounceTime(c.DebounceTime); err != nil {
		return nil, err
	}
	if err := e.SetLongPressTime(c.LongPressTime); err != nil {
		return nil, err
	}
	return e, nil
}

// AddToLoop implements framework.LoopAdder. The console takes part in
// every phase; its link and reporter run alongside the loop.
func (c *Console) AddToLoop(l *framework.Loop) {
	l.At(framework.PhaseSense, c).
		At(framework.PhaseControl, c).
		At(framework.PhaseActuate, c).
		At(framework.PhaseMaintain, c)
	l.AddRunnable(framework.NamedRun("hostlink", c.Link))
	if c.Reporter != nil {
		l.AddRunnable(framework.NamedRun("telemetry", c.Reporter))
	}
}
