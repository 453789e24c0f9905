package matrix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var sampleFrame = []byte{
	0xAA, 0x47, 0x00, 0x00, 0x03,
	0x80, 0x80, 0x80, 0x80, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00,
	0x6E, 0xBF,
}

func TestDecodeSampleFrame(t *testing.T) {
	require.True(t, IsWellFormed(sampleFrame))
	require.Equal(t, byte(0x6E), Checksum(sampleFrame))
	require.True(t, IsValid(sampleFrame))

	tm := Decode(sampleFrame)
	require.True(t, tm.Valid)
	require.Equal(t, byte(0x47), tm.Index)
	for i, on := range tm.Keys {
		require.Equalf(t, i == 16 || i == 17, on, "key %d", i)
	}
	require.Equal(t, [NumADC]byte{0x80, 0x80, 0x80, 0x80, 0, 0, 0, 0x80, 0, 0, 0, 0, 0, 0}, tm.ADC)
	require.Equal(t, [NumLEDs]bool{}, tm.LEDs)
	require.Equal(t, sampleFrame, tm.Raw)
}

func TestDecodeBitLayout(t *testing.T) {
	in := &Telemetry{Index: 9}
	for _, k := range []int{0, 7, 8, 15, 23} {
		in.Keys[k] = true
	}
	for i := range in.ADC {
		in.ADC[i] = byte(i * 17)
	}
	for _, l := range []int{0, 5, 16, 19} {
		in.LEDs[l] = true
	}
	frame := Encode(in)
	require.Len(t, frame, FrameSize)
	require.Equal(t, []byte{0x81, 0x81, 0x80}, frame[2:5])
	require.Equal(t, []byte{0x21, 0x00, 0x09}, frame[19:22])

	out := Decode(frame)
	require.True(t, out.Valid)
	require.Equal(t, in.Index, out.Index)
	require.Equal(t, in.Keys, out.Keys)
	require.Equal(t, in.ADC, out.ADC)
	require.Equal(t, in.LEDs, out.LEDs)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	frame := append([]byte(nil), sampleFrame...)
	frame[22] = 0x6F
	require.True(t, IsWellFormed(frame))
	require.False(t, IsValid(frame))

	tm := Decode(frame)
	require.False(t, tm.Valid)
	require.Equal(t, byte(0x47), tm.Index)
	require.True(t, tm.Keys[16])
	require.Equal(t, byte(0x80), tm.ADC[0])
}

func TestChecksumIsPure(t *testing.T) {
	frame := append([]byte(nil), sampleFrame...)
	first := Checksum(frame)
	require.Equal(t, first, Checksum(frame))
	require.Equal(t, sampleFrame, frame)
	// bytes at and beyond the checksum position don't contribute.
	frame[22], frame[23] = 0, 0
	require.Equal(t, first, Checksum(frame))
}

func TestIsWellFormed(t *testing.T) {
	require.False(t, IsWellFormed(sampleFrame[:23]))
	require.False(t, IsWellFormed(append(append([]byte(nil), sampleFrame...), 0)))
	bad := append([]byte(nil), sampleFrame...)
	bad[0] = 0xAB
	require.False(t, IsWellFormed(bad))
	bad[0], bad[23] = 0xAA, 0xBE
	require.False(t, IsWellFormed(bad))
}

func TestTelemetryClone(t *testing.T) {
	tm := Decode(sampleFrame)
	c := tm.Clone()
	c.Raw[1] = 0
	c.Keys[0] = true
	require.Equal(t, byte(0x47), tm.Raw[1])
	require.False(t, tm.Keys[0])
}

func TestDecodeWrongLength(t *testing.T) {
	for _, frame := range [][]byte{nil, sampleFrame[:5], sampleFrame[:23], append(append([]byte(nil), sampleFrame...), 0)} {
		tm := Decode(frame)
		require.False(t, tm.Valid)
		require.Zero(t, tm.Index)
		require.Equal(t, [NumKeys]bool{}, tm.Keys)
		require.Equal(t, len(frame), len(tm.Raw))
	}
}
