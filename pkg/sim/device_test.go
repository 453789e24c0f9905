package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/keymatrix/pkg/boot"
	"github.com/robotalks/keymatrix/pkg/matrix"
)

func TestDeviceTelemetry(t *testing.T) {
	dev := NewDevice(7)
	dev.Noise = 8
	dev.SetKey(5, true)
	dev.SetADC(2, 0x42)
	dev.SetLED(19, true)

	s := matrix.NewSession()
	s.Connect(dev)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, s.ReadAndDecode(ctx))
		snapshot := s.Snapshot()
		require.True(t, snapshot.Valid)
		require.Equal(t, byte(i), snapshot.Index)
		require.True(t, snapshot.Keys[5])
		require.Equal(t, byte(0x42), snapshot.ADC[2])
		require.True(t, snapshot.LEDs[19])
	}
	require.Equal(t, 10, dev.Frames())
}

func TestDeviceCorruption(t *testing.T) {
	dev := NewDevice(1)
	dev.CorruptEvery = 2
	s := matrix.NewSession()
	s.Connect(dev)
	ctx := context.Background()

	require.NoError(t, s.ReadAndDecode(ctx))
	require.True(t, s.Valid())
	require.NoError(t, s.ReadAndDecode(ctx))
	require.False(t, s.Valid())
	require.Equal(t, byte(1), s.Snapshot().Index)
	require.Equal(t, byte(0), s.LastValid().Index)
	require.NoError(t, s.ReadAndDecode(ctx))
	require.True(t, s.Valid())
}

func TestDeviceAnimate(t *testing.T) {
	dev := NewDevice(1)
	dev.Animate = true
	buf := make([]byte, 64)
	for i := 0; i < 3; i++ {
		n, err := dev.Read(buf)
		require.NoError(t, err)
		require.Equal(t, matrix.FrameSize, n)
		tm := matrix.Decode(buf[:n])
		require.True(t, tm.Valid)
		for k, on := range tm.Keys {
			require.Equal(t, k == i, on)
		}
	}
}

func TestDeviceCommands(t *testing.T) {
	dev := NewDevice(1)
	s := matrix.NewSession()
	s.Connect(dev)
	_, err := s.Send([]byte{0xA5, 0x5A})
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0xA5, 0x5A}}, dev.Commands())
}

func TestDeviceBootloader(t *testing.T) {
	img := make([]byte, 1000)
	for i := range img {
		img[i] = byte(i*7 + 3)
	}
	dev := NewDevice(1)
	dev.Mode = ModeBootloader

	u := boot.NewUploader()
	u.Pacing = 0
	require.NoError(t, u.Upload(context.Background(), dev, &boot.Image{Data: img}, true))
	require.True(t, dev.Complete())
	require.True(t, dev.CRCVerified())
	require.Equal(t, img, dev.Image())

	uploads := dev.Uploads()
	require.Len(t, uploads, 4)
	for n, f := range uploads {
		require.Equal(t, byte(n), f.Seq)
	}
	require.Equal(t, boot.FuncSendCRC, uploads[2].Func)

	// every frame was acknowledged and the acks consumed by the uploader.
	n, _ := dev.Read(make([]byte, 16))
	require.Zero(t, n)
}

func TestDeviceBootloaderWithoutCRC(t *testing.T) {
	dev := NewDevice(1)
	dev.Mode = ModeBootloader
	u := boot.NewUploader()
	u.Pacing = 0
	require.NoError(t, u.Upload(context.Background(), dev, &boot.Image{Data: []byte{1, 2, 3}}, false))
	require.True(t, dev.Complete())
	require.False(t, dev.CRCVerified())
	require.Len(t, dev.Uploads(), 2)
}
