package matrix

// Telemetry frame layout.
const (
	FrameSize = 24

	StartMarker byte = 0xAA
	EndMarker   byte = 0xBF

	NumKeys = 24
	NumADC  = 14
	NumLEDs = 20

	offsetIndex    = 1
	offsetKeys     = 2
	offsetADC      = 5
	offsetLEDs     = 19
	offsetChecksum = 22
	offsetEnd      = FrameSize - 1
)

// Telemetry is a decoded telemetry frame.
type Telemetry struct {
	Index byte
	Keys  [NumKeys]bool
	ADC   [NumADC]byte
	LEDs  [NumLEDs]bool
	Raw   []byte
	Valid bool
}

// Clone returns a deep copy.
func (t *Telemetry) Clone() *Telemetry {
	c := *t
	if t.Raw != nil {
		c.Raw = append([]byte(nil), t.Raw...)
	}
	return &c
}

// IsWellFormed checks the frame length and both markers.
func IsWellFormed(frame []byte) bool {
	return len(frame) == FrameSize &&
		frame[0] == StartMarker &&
		frame[offsetEnd] == EndMarker
}

// Checksum computes the XOR-fold of bytes [0, 22) including the start marker.
func Checksum(frame []byte) byte {
	var sum byte
	for _, b := range frame[:offsetChecksum] {
		sum ^= b
	}
	return sum
}

// IsValid checks the frame is well-formed and its checksum matches.
func IsValid(frame []byte) bool {
	return IsWellFormed(frame) && Checksum(frame) == frame[offsetChecksum]
}

// Decode decodes a 24-byte frame. Fields are decoded regardless of the
// checksum, Valid reports whether it matched. A frame of any other
// length decodes to an invalid, empty Telemetry keeping only Raw.
func Decode(frame []byte) *Telemetry {
	if len(frame) != FrameSize {
		return &Telemetry{Raw: append([]byte(nil), frame...)}
	}
	t := &Telemetry{
		Index: frame[offsetIndex],
		Raw:   append([]byte(nil), frame...),
		Valid: Checksum(frame) == frame[offsetChecksum],
	}
	for i := range t.Keys {
		t.Keys[i] = frame[offsetKeys+i/8]&(1<<uint(i%8)) != 0
	}
	copy(t.ADC[:], frame[offsetADC:offsetADC+NumADC])
	for i := range t.LEDs {
		t.LEDs[i] = frame[offsetLEDs+i/8]&(1<<uint(i%8)) != 0
	}
	return t
}

// Encode builds a frame with a correct checksum from the decoded fields.
// Raw and Valid are ignored.
func Encode(t *Telemetry) []byte {
	frame := make([]byte, FrameSize)
	frame[0], frame[offsetIndex] = StartMarker, t.Index
	for i, on := range t.Keys {
		if on {
			frame[offsetKeys+i/8] |= 1 << uint(i%8)
		}
	}
	copy(frame[offsetADC:], t.ADC[:])
	for i, on := range t.LEDs {
		if on {
			frame[offsetLEDs+i/8] |= 1 << uint(i%8)
		}
	}
	frame[offsetChecksum] = Checksum(frame)
	frame[offsetEnd] = EndMarker
	return frame
}
