package boot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testImage(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}

func TestCRC32Vectors(t *testing.T) {
	testCases := []struct {
		name   string
		data   []byte
		expect uint32
	}{
		{"empty", nil, 0x00000000},
		{"zero word", []byte{0, 0, 0, 0}, 0x38FB2284},
		{"single zero byte padded", []byte{0}, 0x38FB2284},
		{"little endian word", []byte{0x78, 0x56, 0x34, 0x12}, 0x207575D4},
		{"check string", []byte("123456789"), 0x500E6FA8},
		{"full word", []byte{1, 2, 3, 4}, 0xE25418B0},
		{"partial word", []byte{1, 2, 3}, 0x9EA154B5},
		{"image", testImage(1000), 0x24D67F34},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, CRC32(tc.data))
		})
	}
}

func TestCRC32PaddingIsZero(t *testing.T) {
	require.Equal(t, CRC32([]byte{1, 2, 3, 0}), CRC32([]byte{1, 2, 3}))
}

func TestCRC32SingleBitFlip(t *testing.T) {
	img := testImage(1000)
	require.Equal(t, uint32(0x24D67F34), CRC32(img))
	img[500] ^= 1
	require.Equal(t, uint32(0xBB3E9C0C), CRC32(img))
}

func TestCRC32NotIEEE(t *testing.T) {
	// the reflected IEEE CRC of "123456789" is CBF43926.
	require.NotEqual(t, uint32(0xCBF43926), CRC32([]byte("123456789")))
}
