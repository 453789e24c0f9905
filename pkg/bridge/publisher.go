package bridge

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/keymatrix/pkg/matrix"
	"github.com/robotalks/keymatrix/pkg/msgs"
)

// Topic suffixes under <prefix><device>/.
const (
	TopicTelemetry = "telemetry"
	TopicMeta      = "meta"
	TopicCommand   = "cmd"
)

// DeviceTopic returns the topic of a device, relative to the prefix.
func DeviceTopic(device, suffix string) string {
	return device + "/" + suffix
}

// CommandSender writes raw bytes to the device.
type CommandSender interface {
	Send([]byte) (int, error)
}

// Publisher forwards snapshots to MQTT and commands back to the device.
type Publisher struct {
	Queue    *Queue
	DeviceID string
	Meta     *msgs.Meta
	Sender   CommandSender

	seq uint64
	now func() time.Time
}

// NewPublisher creates a Publisher connected to brokerURL when Run.
func NewPublisher(brokerURL string, meta *msgs.Meta, sender CommandSender) (*Publisher, error) {
	bo, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	bo.Client.SetBinaryWill(bo.TopicPrefix+DeviceTopic(meta.Device, TopicMeta), nil, 1, true)
	if bo.Client.ClientID == "" {
		bo.Client.SetClientID("keymatrix:" + meta.Device)
	}
	p := &Publisher{
		Queue:    NewQueue(bo),
		DeviceID: meta.Device,
		Meta:     meta,
		Sender:   sender,
	}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	return p, nil
}

// HandleSnapshot implements matrix.SnapshotHandler.
func (p *Publisher) HandleSnapshot(ctx context.Context, t *matrix.Telemetry) {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	seq := atomic.AddUint64(&p.seq, 1)
	data, err := msgs.FromSnapshot(p.DeviceID, seq, now(), t).Encode()
	if err != nil {
		glog.Errorf("encode telemetry: %v", err)
		return
	}
	p.Queue.Pub(DeviceTopic(p.DeviceID, TopicTelemetry), data)
}

// Run implements framework.Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	sub := p.Queue.Sub(DeviceTopic(p.DeviceID, TopicCommand), p.handleCommand)
	<-ctx.Done()
	sub.Close()
	p.Queue.PubWith(DeviceTopic(p.DeviceID, TopicMeta), nil, 1, true).WaitTimeout(time.Second)
	p.Queue.Close()
	return ctx.Err()
}

func (p *Publisher) publishMeta() {
	p.Queue.PubWith(DeviceTopic(p.DeviceID, TopicMeta), p.Meta.JSON(), 1, true)
}

func (p *Publisher) handleCommand(topic string, payload []byte) {
	if len(payload) == 0 || p.Sender == nil {
		return
	}
	glog.V(2).Infof("command % X", payload)
	if _, err := p.Sender.Send(payload); err != nil {
		glog.Warningf("send command: %v", err)
	}
}
