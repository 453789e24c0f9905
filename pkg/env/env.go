// Package env sets up a device session, its transport and the MQTT
// bridge from flags and environment variables.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/robotalks/keymatrix/pkg/bridge"
	fx "github.com/robotalks/keymatrix/pkg/framework"
	"github.com/robotalks/keymatrix/pkg/link"
	"github.com/robotalks/keymatrix/pkg/matrix"
	"github.com/robotalks/keymatrix/pkg/msgs"
)

// Config provides the options to set up an Env.
type Config struct {
	// LinkURL specifies the device transport,
	// e.g. serial:///dev/ttyUSB0?baud=115200
	LinkURL string
	// MQTTBrokerURL specifies the broker to publish telemetry to,
	// e.g. mqtt://host:port/topic-prefix/. Empty disables publishing.
	MQTTBrokerURL string
	DeviceID      string
	Description   string

	// KeyNames, ADCNames and LEDNames are comma separated display names.
	KeyNames string
	ADCNames string
	LEDNames string

	PollInterval   time.Duration
	SyncPolicy     string
	MaxBuffered    int
	ErrorThreshold int
}

// Environment variables.
const (
	EnvLink     = "KEYMATRIX_LINK"
	EnvMQTTURL  = "KEYMATRIX_MQTT_URL"
	EnvDeviceID = "KEYMATRIX_DEVICE_ID"
	EnvKeyNames = "KEYMATRIX_KEY_NAMES"
	EnvADCNames = "KEYMATRIX_ADC_NAMES"
	EnvLEDNames = "KEYMATRIX_LED_NAMES"
)

var defaultConfig = Config{
	LinkURL:        "serial:///dev/ttyUSB0",
	PollInterval:   10 * time.Millisecond,
	SyncPolicy:     matrix.SyncLatestValid.String(),
	MaxBuffered:    matrix.DefaultMaxBuffered,
	ErrorThreshold: matrix.DefaultErrorThreshold,
}

func init() {
	if val := os.Getenv(EnvLink); val != "" {
		defaultConfig.LinkURL = val
	}
	defaultConfig.MQTTBrokerURL = os.Getenv(EnvMQTTURL)
	defaultConfig.KeyNames = os.Getenv(EnvKeyNames)
	defaultConfig.ADCNames = os.Getenv(EnvADCNames)
	defaultConfig.LEDNames = os.Getenv(EnvLEDNames)
	if val := os.Getenv(EnvDeviceID); val != "" {
		defaultConfig.DeviceID = val
	} else {
		defaultConfig.DeviceID = MachineID()
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Device link URL (serial://, tcp://, ws://)")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID")
	flag.StringVar(&defaultConfig.Description, "desc", defaultConfig.Description, "Device description")
	flag.StringVar(&defaultConfig.KeyNames, "key-names", defaultConfig.KeyNames, "Comma separated key names")
	flag.StringVar(&defaultConfig.ADCNames, "adc-names", defaultConfig.ADCNames, "Comma separated ADC channel names")
	flag.StringVar(&defaultConfig.LEDNames, "led-names", defaultConfig.LEDNames, "Comma separated LED names")
	flag.DurationVar(&defaultConfig.PollInterval, "poll-interval", defaultConfig.PollInterval, "Interval between reads")
	flag.StringVar(&defaultConfig.SyncPolicy, "sync", defaultConfig.SyncPolicy, "Frame sync policy: latest-valid or oldest")
	flag.IntVar(&defaultConfig.MaxBuffered, "max-buffered", defaultConfig.MaxBuffered, "Maximum undelivered bytes before trimming")
	flag.IntVar(&defaultConfig.ErrorThreshold, "error-threshold", defaultConfig.ErrorThreshold, "Consecutive read errors reported before suppressing")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Labels returns the configured display names, nil if none.
func (c *Config) Labels() *matrix.Labels {
	return matrix.ParseLabels(c.KeyNames, c.ADCNames, c.LEDNames)
}

// NewSession creates a disconnected Session.
func (c *Config) NewSession() (*matrix.Session, error) {
	policy, err := matrix.ParseSyncPolicy(c.SyncPolicy)
	if err != nil {
		return nil, err
	}
	s := matrix.NewSession().Buffer(policy, c.MaxBuffered)
	if c.ErrorThreshold > 0 {
		s.ErrorThreshold = c.ErrorThreshold
	}
	return s, nil
}

// Env is a connected session with optional telemetry publishing.
type Env struct {
	Config    *Config
	Session   *matrix.Session
	Publisher *bridge.Publisher
}

// NewEnv opens the link and creates the Env.
func (c *Config) NewEnv() (*Env, error) {
	if c.DeviceID == "" {
		return nil, fmt.Errorf("device id must be specified")
	}
	s, err := c.NewSession()
	if err != nil {
		return nil, err
	}
	env := &Env{Config: c, Session: s}
	if c.MQTTBrokerURL != "" {
		meta := msgs.NewMeta(c.DeviceID, c.LinkURL)
		meta.Description = c.Description
		if env.Publisher, err = bridge.NewPublisher(c.MQTTBrokerURL, meta, s); err != nil {
			return nil, fmt.Errorf("create MQTT publisher error: %v", err)
		}
		s.Handler = env.Publisher
	}
	rw, err := link.Open(c.LinkURL)
	if err != nil {
		return nil, fmt.Errorf("open link %s error: %v", c.LinkURL, err)
	}
	s.Connect(rw)
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop implements framework.LoopAdder.
func (e *Env) AddToLoop(loop *fx.Loop) {
	if e.Config.PollInterval > 0 {
		loop.Interval = e.Config.PollInterval
	}
	loop.AddController(e.Session)
	if e.Publisher != nil {
		loop.AddRunnable(fx.NamedRun("mqtt", e.Publisher))
	}
}

// Close implements io.Closer.
func (e *Env) Close() error {
	return e.Session.Disconnect()
}

var _ io.Closer = (*Env)(nil)
