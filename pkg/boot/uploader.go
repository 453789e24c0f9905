package boot

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/keymatrix/pkg/link"
)

// Defaults of Uploader.
const (
	DefaultPacing  = 50 * time.Millisecond
	DefaultBackoff = 100 * time.Millisecond
)

const responseBufferSize = 1024

// State is the phase of an upload.
type State int

// Upload states.
const (
	StateIdle State = iota
	StateSendingChunks
	StateSendingCRC
	StateSendingEnd
	StateComplete
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:          "idle",
	StateSendingChunks: "sending-chunks",
	StateSendingCRC:    "sending-crc",
	StateSendingEnd:    "sending-end",
	StateComplete:      "complete",
	StateFailed:        "failed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ProgressFunc receives the number of image bytes sent so far.
type ProgressFunc func(sent, total int)

// Uploader sends a firmware image to the bootloader.
//
// Each chunk is written as one frame followed by a single response read
// and the Pacing delay. A missing or malformed response is logged only.
// A write failure is fatal once Retries are exhausted.
type Uploader struct {
	Address   byte
	ChunkSize int
	Pacing    time.Duration
	Retries   int
	Backoff   time.Duration
	Progress  ProgressFunc

	lock  sync.RWMutex
	state State
	seq   byte
}

// NewUploader creates an Uploader with defaults.
func NewUploader() *Uploader {
	return &Uploader{
		Address:   DefaultAddress,
		ChunkSize: MaxPayload,
		Pacing:    DefaultPacing,
		Backoff:   DefaultBackoff,
	}
}

// State returns the current state.
func (u *Uploader) State() State {
	u.lock.RLock()
	defer u.lock.RUnlock()
	return u.state
}

func (u *Uploader) setState(s State) {
	u.lock.Lock()
	u.state = s
	u.lock.Unlock()
	glog.V(2).Infof("upload state: %s", s)
}

func (u *Uploader) nextSeq() byte {
	s := u.seq
	u.seq++
	return s
}

// UploadFile loads the image at path and uploads it.
func (u *Uploader) UploadFile(ctx context.Context, rw io.ReadWriter, path string, useCRC bool) error {
	img, err := LoadImage(path)
	if err != nil {
		u.setState(StateFailed)
		return err
	}
	return u.Upload(ctx, rw, img, useCRC)
}

// Upload sends img over rw. The CRC frame is sent only if useCRC is set.
func (u *Uploader) Upload(ctx context.Context, rw io.ReadWriter, img *Image, useCRC bool) (err error) {
	if rw == nil {
		u.setState(StateFailed)
		return link.ErrNotConnected
	}
	defer func() {
		if err != nil {
			u.setState(StateFailed)
			glog.Errorf("upload %s failed: %v", img.Name, err)
		}
	}()

	u.seq = 0
	total := img.Size()
	glog.Infof("upload %s: %d bytes, crc=%v", img.Name, total, useCRC)

	u.setState(StateSendingChunks)
	sent := 0
	for _, chunk := range img.Chunks(u.ChunkSize) {
		if err = ctx.Err(); err != nil {
			return errors.Wrap(err, "upload cancelled")
		}
		frame := &Frame{Address: u.Address, Func: FuncSendData, Seq: u.nextSeq(), Data: chunk}
		if err = u.send(ctx, rw, frame); err != nil {
			return err
		}
		u.readResponse(rw, frame)
		sent += len(chunk)
		if u.Progress != nil {
			u.Progress(sent, total)
		}
		if err = sleepContext(ctx, u.Pacing); err != nil {
			return errors.Wrap(err, "upload cancelled")
		}
	}

	if useCRC {
		u.setState(StateSendingCRC)
		crc := img.CRC32()
		glog.Infof("upload %s: crc32 %08X", img.Name, crc)
		frame := &Frame{Address: u.Address, Func: FuncSendCRC, Seq: u.nextSeq(), Data: crcBytes(crc)}
		if err = u.send(ctx, rw, frame); err != nil {
			return err
		}
		u.readResponse(rw, frame)
	}

	u.setState(StateSendingEnd)
	frame := &Frame{Address: u.Address, Func: FuncSendData, Seq: u.nextSeq()}
	if err = u.send(ctx, rw, frame); err != nil {
		return err
	}
	u.readResponse(rw, frame)

	u.setState(StateComplete)
	glog.Infof("upload %s complete", img.Name)
	return nil
}

func (u *Uploader) send(ctx context.Context, w io.Writer, f *Frame) error {
	backoff := u.Backoff
	for attempt := 0; ; attempt++ {
		_, err := f.WriteTo(w)
		if err == nil {
			return nil
		}
		if attempt >= u.Retries {
			return &WriteError{Seq: f.Seq, Func: f.Func, Err: err}
		}
		glog.Warningf("write %s failed, retry in %s: %v", f, backoff, err)
		if err := sleepContext(ctx, backoff); err != nil {
			return errors.Wrap(err, "upload cancelled")
		}
		backoff *= 2
	}
}

func (u *Uploader) readResponse(r io.Reader, f *Frame) {
	buf := make([]byte, responseBufferSize)
	n, err := r.Read(buf)
	if err != nil && !os.IsTimeout(err) {
		glog.Warningf("no response to %s: %v", f, err)
		return
	}
	if n == 0 {
		glog.Warningf("no response to %s", f)
		return
	}
	resp, err := DecodeFrame(buf[:n])
	if err != nil {
		glog.V(2).Infof("response to %s: % X (%v)", f, buf[:n], err)
		return
	}
	glog.V(2).Infof("response to %s: %s", f, resp)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
