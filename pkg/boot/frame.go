package boot

import (
	"fmt"
	"io"
)

// Function codes.
const (
	FuncSendData byte = 0x01
	FuncSendCRC  byte = 0x06
)

const (
	// DefaultAddress is the bootloader device address.
	DefaultAddress byte = 0x01
	// MaxPayload is the largest payload of a single frame.
	MaxPayload = 512
	// FrameOverhead is the number of bytes around the payload.
	FrameOverhead = 6
)

// Frame is a bootloader protocol frame:
//
//	[addr][func][seq][len][payload...][0x00][checksum]
//
// The length byte carries the low 8 bits of the payload length, so a
// full 512-byte payload encodes as 0x00.
type Frame struct {
	Address byte
	Func    byte
	Seq     byte
	Data    []byte
}

// Checksum returns the byte which brings the sum of data plus itself to
// zero modulo 256.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return -sum
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, len(f.Data)+FrameOverhead)
	b[0], b[1], b[2], b[3] = f.Address, f.Func, f.Seq, byte(len(f.Data))
	copy(b[4:], f.Data)
	last := len(b) - 1
	b[last] = Checksum(b[:last])
	return b
}

// WriteTo writes the encoded frame in a single write.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("frame(addr=%02X func=%02X seq=%d len=%d)", f.Address, f.Func, f.Seq, len(f.Data))
}

// EncodeDataFrame encodes a firmware chunk. A full MaxPayload chunk
// encodes its length byte as 0x00 like the end frame, so the bootloader
// tells them apart by frame size.
func EncodeDataFrame(addr, seq byte, chunk []byte) []byte {
	return (&Frame{Address: addr, Func: FuncSendData, Seq: seq, Data: chunk}).Bytes()
}

// EncodeCRCFrame encodes the image CRC32, least significant byte first.
func EncodeCRCFrame(addr, seq byte, crc uint32) []byte {
	return (&Frame{Address: addr, Func: FuncSendCRC, Seq: seq, Data: crcBytes(crc)}).Bytes()
}

// EncodeEndFrame encodes the empty data frame terminating an upload.
func EncodeEndFrame(addr, seq byte) []byte {
	return (&Frame{Address: addr, Func: FuncSendData, Seq: seq}).Bytes()
}

// DecodeFrame parses a single complete frame, usually a device response.
func DecodeFrame(b []byte) (*Frame, error) {
	if len(b) < FrameOverhead {
		return nil, ErrFrameTooShort
	}
	payload := b[4 : len(b)-2]
	if byte(len(payload)) != b[3] {
		return nil, ErrFrameLength
	}
	last := len(b) - 1
	if b[last-1] != 0 || Checksum(b[:last]) != b[last] {
		return nil, ErrFrameChecksum
	}
	return &Frame{
		Address: b[0],
		Func:    b[1],
		Seq:     b[2],
		Data:    append([]byte(nil), payload...),
	}, nil
}

func crcBytes(crc uint32) []byte {
	return []byte{byte(crc), byte(crc >> 8), byte(crc >> 16), byte(crc >> 24)}
}
