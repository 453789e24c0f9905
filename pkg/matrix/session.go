package matrix

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/keymatrix/pkg/link"
)

// DefaultErrorThreshold is the number of consecutive read failures
// surfaced to the caller before further failures are swallowed.
const DefaultErrorThreshold = 5

// ReadBufferSize is the size of a single transport read.
const ReadBufferSize = 1024

// SnapshotHandler is called when a new snapshot is published.
type SnapshotHandler interface {
	HandleSnapshot(context.Context, *Telemetry)
}

// HandleSnapshotFunc is func type of SnapshotHandler.
type HandleSnapshotFunc func(context.Context, *Telemetry)

// HandleSnapshot implements SnapshotHandler.
func (f HandleSnapshotFunc) HandleSnapshot(ctx context.Context, t *Telemetry) {
	f(ctx, t)
}

// Session owns the transport, the stream buffer and the published
// snapshot of one device.
//
// A frame failing its checksum is still published, with Valid unset.
// LastValid keeps the most recent frame which passed.
type Session struct {
	ErrorThreshold int
	Handler        SnapshotHandler

	// ioLock serializes all transport access and is always taken before lock.
	ioLock  sync.Mutex
	rw      io.ReadWriter
	readBuf []byte

	lock      sync.RWMutex
	connected bool
	buffer    StreamBuffer
	snapshot  *Telemetry
	lastValid *Telemetry
	errCount  int
}

// NewSession creates a Session.
func NewSession() *Session {
	return &Session{
		ErrorThreshold: DefaultErrorThreshold,
		buffer:         StreamBuffer{MaxBuffered: DefaultMaxBuffered},
	}
}

// Buffer configures the stream buffer. It must be called before the
// session is used concurrently.
func (s *Session) Buffer(policy SyncPolicy, maxBuffered int) *Session {
	s.buffer.Policy, s.buffer.MaxBuffered = policy, maxBuffered
	return s
}

// Connect attaches a transport, closing the previous one if any.
func (s *Session) Connect(rw io.ReadWriter) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.rw != nil {
		closeTransport(s.rw)
	}
	s.rw, s.connected, s.errCount = rw, true, 0
	s.buffer.Reset()
}

// Disconnect detaches and closes the transport.
func (s *Session) Disconnect() (err error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.rw != nil {
		err = closeTransport(s.rw)
	}
	s.rw, s.connected, s.errCount = nil, false, 0
	s.buffer.Reset()
	return
}

// Connected indicates a transport is attached.
func (s *Session) Connected() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.connected
}

// ReadAndDecode performs one transport read, feeds the stream buffer and
// publishes a snapshot if a frame is extracted.
func (s *Session) ReadAndDecode(ctx context.Context) error {
	s.ioLock.Lock()
	if s.rw == nil {
		s.ioLock.Unlock()
		return link.ErrNotConnected
	}
	if s.readBuf == nil {
		s.readBuf = make([]byte, ReadBufferSize)
	}
	n, err := s.rw.Read(s.readBuf)
	if err != nil && os.IsTimeout(err) {
		err = nil
	}

	s.lock.Lock()
	if n > 0 {
		s.buffer.Append(s.readBuf[:n])
	}
	s.ioLock.Unlock()

	if err != nil {
		threshold := s.ErrorThreshold
		if threshold <= 0 {
			threshold = DefaultErrorThreshold
		}
		if s.errCount < threshold {
			s.errCount++
			rerr := &ReadError{Count: s.errCount, Err: err}
			s.lock.Unlock()
			return rerr
		}
		glog.V(4).Infof("read error suppressed: %v", err)
	} else {
		s.errCount = 0
	}

	var published *Telemetry
	if frame, ok := s.buffer.Extract(); ok {
		t := Decode(frame)
		if t.Valid {
			s.lastValid = t
		} else {
			glog.V(2).Infof("frame %d checksum mismatch: % X", t.Index, frame)
		}
		s.snapshot = t
		published = t.Clone()
	}
	s.lock.Unlock()

	if published != nil {
		if h := s.Handler; h != nil {
			h.HandleSnapshot(ctx, published)
		}
	}
	return nil
}

// Control runs one read cycle, so a Session can be driven by a loop.
func (s *Session) Control(ctx context.Context) error {
	return s.ReadAndDecode(ctx)
}

// Snapshot returns a copy of the latest published snapshot.
func (s *Session) Snapshot() *Telemetry {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.snapshot == nil {
		return &Telemetry{}
	}
	return s.snapshot.Clone()
}

// LastValid returns a copy of the latest snapshot with a matching
// checksum, or nil if none has been received.
func (s *Session) LastValid() *Telemetry {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.lastValid == nil {
		return nil
	}
	return s.lastValid.Clone()
}

// RawData returns the raw bytes of the latest snapshot.
func (s *Session) RawData() []byte {
	return s.Snapshot().Raw
}

// Keys returns the key states of the latest snapshot.
func (s *Session) Keys() [NumKeys]bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.snapshot == nil {
		return [NumKeys]bool{}
	}
	return s.snapshot.Keys
}

// ADC returns the ADC channels of the latest snapshot.
func (s *Session) ADC() [NumADC]byte {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.snapshot == nil {
		return [NumADC]byte{}
	}
	return s.snapshot.ADC
}

// LEDs returns the LED states of the latest snapshot.
func (s *Session) LEDs() [NumLEDs]bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.snapshot == nil {
		return [NumLEDs]bool{}
	}
	return s.snapshot.LEDs
}

// Valid indicates whether the latest snapshot passed its checksum.
func (s *Session) Valid() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.snapshot != nil && s.snapshot.Valid
}

// Buffered returns the number of undelivered bytes.
func (s *Session) Buffered() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.buffer.Len()
}

// Send writes raw bytes to the device.
func (s *Session) Send(p []byte) (int, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()
	if s.rw == nil {
		return 0, link.ErrNotConnected
	}
	return s.rw.Write(p)
}

// Exclusive runs fn with the transport while holding the transport lock.
func (s *Session) Exclusive(fn func(io.ReadWriter) error) error {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()
	if s.rw == nil {
		return link.ErrNotConnected
	}
	return fn(s.rw)
}

func closeTransport(rw io.ReadWriter) error {
	if closer, ok := rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
