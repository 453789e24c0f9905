package matrix

import (
	"bytes"
	"fmt"
)

// DefaultMaxBuffered is the default ceiling of undelivered bytes.
const DefaultMaxBuffered = 1024

// SyncPolicy selects which candidate frame Extract returns when the
// buffer holds more than one.
type SyncPolicy int

const (
	// SyncLatestValid picks the most recent frame whose checksum
	// matches, falling back to the most recent well-formed frame when
	// none matches.
	SyncLatestValid SyncPolicy = iota
	// SyncOldest picks the first well-formed frame scanning left to right.
	SyncOldest
)

// String implements fmt.Stringer.
func (p SyncPolicy) String() string {
	switch p {
	case SyncLatestValid:
		return "latest-valid"
	case SyncOldest:
		return "oldest"
	}
	return "unknown"
}

// ParseSyncPolicy parses the String form of a SyncPolicy.
func ParseSyncPolicy(s string) (SyncPolicy, error) {
	switch s {
	case "", "latest-valid":
		return SyncLatestValid, nil
	case "oldest":
		return SyncOldest, nil
	}
	return SyncLatestValid, fmt.Errorf("unknown sync policy %q", s)
}

// StreamBuffer accumulates bytes from partial reads and extracts frames
// delimited by the start and end markers.
type StreamBuffer struct {
	Policy      SyncPolicy
	MaxBuffered int

	data []byte
}

// NewStreamBuffer creates a StreamBuffer with defaults.
func NewStreamBuffer() *StreamBuffer {
	return &StreamBuffer{MaxBuffered: DefaultMaxBuffered}
}

// Len returns the number of buffered bytes.
func (b *StreamBuffer) Len() int {
	return len(b.data)
}

// Bytes returns a copy of the buffered bytes.
func (b *StreamBuffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Reset drops all buffered bytes.
func (b *StreamBuffer) Reset() {
	b.data = b.data[:0]
}

// Append adds bytes to the tail.
func (b *StreamBuffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Extract returns the next frame according to Policy and consumes it
// together with all bytes before it. When no frame is found the buffer
// is kept for the next call, trimmed if it grew beyond MaxBuffered.
// After a frame is extracted, the oldest remaining bytes are dropped so
// that at most MaxBuffered stay buffered.
func (b *StreamBuffer) Extract() ([]byte, bool) {
	var pos int
	switch b.Policy {
	case SyncOldest:
		pos = b.scanOldest()
	default:
		pos = b.scanLatestValid()
	}
	if pos < 0 {
		b.trim()
		return nil, false
	}
	end := pos + FrameSize
	frame := append([]byte(nil), b.data[pos:end]...)
	b.data = append(b.data[:0], b.data[end:]...)
	b.bound()
	return frame, true
}

func (b *StreamBuffer) candidateAt(i int) bool {
	return b.data[i] == StartMarker && b.data[i+offsetEnd] == EndMarker
}

func (b *StreamBuffer) scanOldest() int {
	for i := 0; i+FrameSize <= len(b.data); i++ {
		if b.candidateAt(i) {
			return i
		}
	}
	return -1
}

func (b *StreamBuffer) scanLatestValid() int {
	latest := -1
	for i := len(b.data) - FrameSize; i >= 0; i-- {
		if !b.candidateAt(i) {
			continue
		}
		if IsValid(b.data[i : i+FrameSize]) {
			return i
		}
		if latest < 0 {
			latest = i
		}
	}
	return latest
}

func (b *StreamBuffer) maxBuffered() int {
	if b.MaxBuffered <= 0 {
		return DefaultMaxBuffered
	}
	return b.MaxBuffered
}

// bound resyncs on the first start marker within the newest MaxBuffered
// bytes, or clears the buffer if there is none.
func (b *StreamBuffer) bound() {
	from := len(b.data) - b.maxBuffered()
	if from <= 0 {
		return
	}
	if pos := bytes.IndexByte(b.data[from:], StartMarker); pos >= 0 {
		b.data = append(b.data[:0], b.data[from+pos:]...)
	} else {
		b.data = b.data[:0]
	}
}

func (b *StreamBuffer) trim() {
	if len(b.data) <= b.maxBuffered() {
		return
	}
	// a start marker at offset 0 would leave the buffer as large as it is.
	if last := bytes.LastIndexByte(b.data, StartMarker); last > 0 {
		b.data = append(b.data[:0], b.data[last:]...)
	} else {
		b.data = b.data[:0]
	}
}
