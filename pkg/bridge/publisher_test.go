package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/keymatrix/pkg/matrix"
	"github.com/robotalks/keymatrix/pkg/msgs"
)

type recordSender struct {
	lock sync.Mutex
	sent [][]byte
}

func (s *recordSender) Send(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sent = append(s.sent, append([]byte(nil), p...))
	return len(p), nil
}

func (s *recordSender) commands() [][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([][]byte(nil), s.sent...)
}

func newTestPublisher() (*Publisher, *fakeClient, *recordSender) {
	q, c := newFakeQueue("lab/")
	sender := &recordSender{}
	p := &Publisher{
		Queue:    q,
		DeviceID: "dev1",
		Meta:     msgs.NewMeta("dev1", "tcp://sim:7000"),
		Sender:   sender,
		now:      func() time.Time { return fixedTime },
	}
	q.OnConnect = func(*Queue) { p.publishMeta() }
	return p, c, sender
}

func TestPublisherHandleSnapshot(t *testing.T) {
	p, c, _ := newTestPublisher()
	in := &matrix.Telemetry{Index: 5}
	in.Keys[3] = true
	snapshot := matrix.Decode(matrix.Encode(in))
	p.HandleSnapshot(context.Background(), snapshot)
	p.HandleSnapshot(context.Background(), snapshot)

	pubs := c.published()
	require.Len(t, pubs, 2)
	require.Equal(t, "lab/dev1/telemetry", pubs[0].topic)
	m, err := msgs.DecodeTelemetry(pubs[1].payload)
	require.NoError(t, err)
	require.Equal(t, uint64(2), m.Seq)
	require.Equal(t, "dev1", m.DeviceId)
	require.Equal(t, fixedTime, m.Time())
	require.Equal(t, snapshot.Keys, m.Snapshot().Keys)
	require.True(t, m.Valid)
}

func TestPublisherRun(t *testing.T) {
	p, c, sender := newTestPublisher()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	waitFor(t, func() bool { return c.subscribed("lab/dev1/cmd") })
	pubs := c.published()
	require.NotEmpty(t, pubs)
	require.Equal(t, "lab/dev1/meta", pubs[0].topic)
	require.True(t, pubs[0].retain)
	meta, err := msgs.DecodeMeta(pubs[0].payload)
	require.NoError(t, err)
	require.Equal(t, "dev1", meta.Device)

	c.deliver("lab/dev1/cmd", "lab/dev1/cmd", []byte{0xA5, 0x01})
	c.deliver("lab/dev1/cmd", "lab/dev1/cmd", nil)
	require.Equal(t, [][]byte{{0xA5, 0x01}}, sender.commands())

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	pubs = c.published()
	last := pubs[len(pubs)-1]
	require.Equal(t, "lab/dev1/meta", last.topic)
	require.Empty(t, last.payload)
	require.False(t, c.IsConnected())
	require.False(t, c.subscribed("lab/dev1/cmd"))
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher("mqtt://localhost:1883/lab/", msgs.NewMeta("dev9", ""), nil)
	require.NoError(t, err)
	require.Equal(t, "lab/", p.Queue.TopicPrefix)
	require.Equal(t, "dev9", p.DeviceID)
	opts := p.Queue.Client.OptionsReader()
	require.Equal(t, "keymatrix:dev9", opts.ClientID())
	require.Equal(t, "lab/dev9/meta", opts.WillTopic())
	require.True(t, opts.WillRetained())
}
