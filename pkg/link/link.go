package link

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
	"golang.org/x/net/websocket"
)

// DefaultReadTimeout bounds every transport read.
const DefaultReadTimeout = 500 * time.Millisecond

// DefaultBaudRate is used when the link URL doesn't specify one.
const DefaultBaudRate = 115200

// SerialOptions is the parsed form of a serial link URL.
type SerialOptions struct {
	Name        string
	Mode        serial.Mode
	ReadTimeout time.Duration
}

// Open opens a transport from a link URL. Supported schemes:
//
//	serial:///dev/ttyUSB0?baud=115200&databits=8&parity=none&stopbits=1&timeout=500ms
//	tcp://host:port?timeout=500ms
//	ws://host:port/path (or wss://)
//
// Reads on every returned transport block at most the read timeout and
// report an expired timeout as a zero-byte read.
func Open(linkURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %v", err)
	}
	switch u.Scheme {
	case "serial":
		opts, err := ParseSerialURL(u)
		if err != nil {
			return nil, err
		}
		return OpenSerial(opts)
	case "tcp":
		return dialTCP(u)
	case "ws", "wss":
		return dialWebSocket(u)
	default:
		return nil, &SchemeError{Scheme: u.Scheme}
	}
}

// ParseSerialURL extracts port name and line settings from a serial URL.
func ParseSerialURL(u *url.URL) (*SerialOptions, error) {
	opts := &SerialOptions{
		Name: u.Host + u.Path,
		Mode: serial.Mode{
			BaudRate: DefaultBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		ReadTimeout: DefaultReadTimeout,
	}
	if opts.Name == "" {
		opts.Name = u.Opaque
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("serial port name required")
	}
	q := u.Query()
	if val := q.Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return nil, fmt.Errorf("invalid baud rate: %q", val)
		}
		opts.Mode.BaudRate = baud
	}
	if val := q.Get("databits"); val != "" {
		bits, err := strconv.Atoi(val)
		if err != nil || bits < 5 || bits > 8 {
			return nil, fmt.Errorf("invalid data bits: %q", val)
		}
		opts.Mode.DataBits = bits
	}
	if val := q.Get("parity"); val != "" {
		switch strings.ToLower(val) {
		case "none", "n":
			opts.Mode.Parity = serial.NoParity
		case "odd", "o":
			opts.Mode.Parity = serial.OddParity
		case "even", "e":
			opts.Mode.Parity = serial.EvenParity
		case "mark", "m":
			opts.Mode.Parity = serial.MarkParity
		case "space", "s":
			opts.Mode.Parity = serial.SpaceParity
		default:
			return nil, fmt.Errorf("invalid parity: %q", val)
		}
	}
	if val := q.Get("stopbits"); val != "" {
		switch val {
		case "1":
			opts.Mode.StopBits = serial.OneStopBit
		case "1.5":
			opts.Mode.StopBits = serial.OnePointFiveStopBits
		case "2":
			opts.Mode.StopBits = serial.TwoStopBits
		default:
			return nil, fmt.Errorf("invalid stop bits: %q", val)
		}
	}
	timeout, err := readTimeoutFrom(u)
	if err != nil {
		return nil, err
	}
	opts.ReadTimeout = timeout
	return opts, nil
}

// OpenSerial opens a serial port.
func OpenSerial(opts *SerialOptions) (io.ReadWriteCloser, error) {
	port, err := serial.Open(opts.Name, &opts.Mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", opts.Name, err)
	}
	if err = port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %v", opts.Name, err)
	}
	glog.Infof("opened %s at %d baud", opts.Name, opts.Mode.BaudRate)
	return port, nil
}

// ListPorts enumerates serial ports on the host.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

func readTimeoutFrom(u *url.URL) (time.Duration, error) {
	val := u.Query().Get("timeout")
	if val == "" {
		return DefaultReadTimeout, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid read timeout: %q", val)
	}
	return d, nil
}

func dialTCP(u *url.URL) (io.ReadWriteCloser, error) {
	timeout, err := readTimeoutFrom(u)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialTimeout("tcp", u.Host, 5*time.Second)
	if err != nil {
		return nil, err
	}
	glog.Infof("connected tcp %s", u.Host)
	return &deadlineConn{Conn: conn, timeout: timeout}, nil
}

func dialWebSocket(u *url.URL) (io.ReadWriteCloser, error) {
	timeout, err := readTimeoutFrom(u)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Del("timeout")
	target := *u
	target.RawQuery = q.Encode()
	origin := "http://" + u.Host + "/"
	if u.Scheme == "wss" {
		origin = "https://" + u.Host + "/"
	}
	conn, err := websocket.Dial(target.String(), "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	glog.Infof("connected websocket %s", target.String())
	return &deadlineConn{Conn: conn, timeout: timeout}, nil
}

// deadlineConn bounds each Read with a deadline and reports expiry as a
// zero-byte read, the same way a serial port with a read timeout does.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Read(p)
	if err != nil && os.IsTimeout(err) {
		return n, nil
	}
	return n, err
}
