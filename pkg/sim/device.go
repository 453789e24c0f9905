package sim

import (
	"math/rand"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/keymatrix/pkg/boot"
	"github.com/robotalks/keymatrix/pkg/matrix"
)

// Mode selects how the simulated device behaves.
type Mode int

// Device modes.
const (
	// ModeTelemetry streams telemetry frames on every Read.
	ModeTelemetry Mode = iota
	// ModeBootloader accepts upload frames and acknowledges each of them.
	ModeBootloader
)

// Device is an in-memory key matrix device. It implements io.ReadWriter
// and never blocks: a Read with nothing to deliver returns 0 bytes.
type Device struct {
	Mode Mode
	// Noise is the maximum number of garbage bytes emitted before a frame.
	Noise int
	// CorruptEvery makes every Nth frame fail its checksum. 0 disables it.
	CorruptEvery int
	// Animate walks a pressed key and ramps ADC values between frames.
	Animate bool

	lock     sync.Mutex
	rand     *rand.Rand
	state    matrix.Telemetry
	frames   int
	out      []byte
	commands [][]byte

	uploads  []*boot.Frame
	image    []byte
	crc      uint32
	crcSent  bool
	complete bool
}

// NewDevice creates a Device seeded for reproducible noise.
func NewDevice(seed int64) *Device {
	return &Device{rand: rand.New(rand.NewSource(seed))}
}

// SetKey sets the state of a key.
func (d *Device) SetKey(n int, on bool) {
	d.lock.Lock()
	d.state.Keys[n] = on
	d.lock.Unlock()
}

// SetADC sets an ADC channel.
func (d *Device) SetADC(n int, val byte) {
	d.lock.Lock()
	d.state.ADC[n] = val
	d.lock.Unlock()
}

// SetLED sets the state of an LED.
func (d *Device) SetLED(n int, on bool) {
	d.lock.Lock()
	d.state.LEDs[n] = on
	d.lock.Unlock()
}

// Read implements io.Reader.
func (d *Device) Read(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.Mode == ModeTelemetry && len(d.out) == 0 {
		d.emitFrame()
	}
	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

// Write implements io.Writer. In telemetry mode the bytes are recorded as
// a command. In bootloader mode each write must carry one upload frame.
func (d *Device) Write(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.Mode == ModeTelemetry {
		d.commands = append(d.commands, append([]byte(nil), p...))
		glog.V(2).Infof("sim: command % X", p)
		return len(p), nil
	}
	f, err := boot.DecodeFrame(p)
	if err != nil {
		glog.Warningf("sim: bad upload frame: %v", err)
		return len(p), nil
	}
	d.receive(f)
	return len(p), nil
}

func (d *Device) receive(f *boot.Frame) {
	d.uploads = append(d.uploads, f)
	switch {
	case f.Func == boot.FuncSendCRC && len(f.Data) == 4:
		d.crc = uint32(f.Data[0]) | uint32(f.Data[1])<<8 | uint32(f.Data[2])<<16 | uint32(f.Data[3])<<24
		d.crcSent = true
	case f.Func == boot.FuncSendData && len(f.Data) == 0:
		d.complete = true
		glog.Infof("sim: upload complete, %d bytes", len(d.image))
	case f.Func == boot.FuncSendData:
		d.image = append(d.image, f.Data...)
	}
	ack := &boot.Frame{Address: f.Address, Func: f.Func, Seq: f.Seq}
	d.out = append(d.out, ack.Bytes()...)
}

func (d *Device) emitFrame() {
	if d.rand == nil {
		d.rand = rand.New(rand.NewSource(1))
	}
	if d.Noise > 0 {
		for n := d.rand.Intn(d.Noise + 1); n > 0; n-- {
			b := byte(d.rand.Intn(256))
			if b == matrix.StartMarker {
				b = 0
			}
			d.out = append(d.out, b)
		}
	}
	if d.Animate {
		d.animate()
	}
	d.state.Index = byte(d.frames)
	d.frames++
	frame := matrix.Encode(&d.state)
	if d.CorruptEvery > 0 && d.frames%d.CorruptEvery == 0 {
		frame[matrix.FrameSize-2] ^= 0xFF
	}
	d.out = append(d.out, frame...)
}

func (d *Device) animate() {
	key := d.frames % matrix.NumKeys
	for n := range d.state.Keys {
		d.state.Keys[n] = n == key
	}
	for n := range d.state.ADC {
		d.state.ADC[n] = byte(d.frames*4 + n*16)
	}
	d.state.LEDs[key%matrix.NumLEDs] = !d.state.LEDs[key%matrix.NumLEDs]
}

// Frames returns the number of telemetry frames emitted.
func (d *Device) Frames() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.frames
}

// Commands returns the bytes written in telemetry mode.
func (d *Device) Commands() [][]byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([][]byte(nil), d.commands...)
}

// Uploads returns the upload frames received in bootloader mode.
func (d *Device) Uploads() []*boot.Frame {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]*boot.Frame(nil), d.uploads...)
}

// Image returns the firmware received so far.
func (d *Device) Image() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]byte(nil), d.image...)
}

// Complete indicates the end frame was received.
func (d *Device) Complete() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.complete
}

// CRCVerified indicates a CRC frame was received and matches the image.
func (d *Device) CRCVerified() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.crcSent && d.crc == boot.CRC32(d.image)
}
