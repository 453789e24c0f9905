package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/keymatrix/pkg/matrix"
)

// Telemetry is the wire form of one decoded telemetry frame.
type Telemetry struct {
	Index     uint32 `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	Keys      []bool `protobuf:"varint,2,rep,packed,name=keys,proto3" json:"keys,omitempty"`
	Adc       []byte `protobuf:"bytes,3,opt,name=adc,proto3" json:"adc,omitempty"`
	Leds      []bool `protobuf:"varint,4,rep,packed,name=leds,proto3" json:"leds,omitempty"`
	Raw       []byte `protobuf:"bytes,5,opt,name=raw,proto3" json:"raw,omitempty"`
	Valid     bool   `protobuf:"varint,6,opt,name=valid,proto3" json:"valid,omitempty"`
	Seq       uint64 `protobuf:"varint,7,opt,name=seq,proto3" json:"seq,omitempty"`
	Timestamp int64  `protobuf:"varint,8,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	DeviceId  string `protobuf:"bytes,9,opt,name=device_id,proto3" json:"device_id,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Telemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Telemetry) Reset() { *m = Telemetry{} }

// String implements proto.Message.
func (m *Telemetry) String() string { return proto.CompactTextString(m) }

// FromSnapshot converts a decoded snapshot.
func FromSnapshot(deviceID string, seq uint64, at time.Time, t *matrix.Telemetry) *Telemetry {
	return &Telemetry{
		Index:     uint32(t.Index),
		Keys:      append([]bool(nil), t.Keys[:]...),
		Adc:       append([]byte(nil), t.ADC[:]...),
		Leds:      append([]bool(nil), t.LEDs[:]...),
		Raw:       append([]byte(nil), t.Raw...),
		Valid:     t.Valid,
		Seq:       seq,
		Timestamp: at.UnixNano(),
		DeviceId:  deviceID,
	}
}

// Snapshot converts back to the decoded form. Missing fields are zero.
func (m *Telemetry) Snapshot() *matrix.Telemetry {
	t := &matrix.Telemetry{
		Index: byte(m.Index),
		Raw:   append([]byte(nil), m.Raw...),
		Valid: m.Valid,
	}
	copy(t.Keys[:], m.Keys)
	copy(t.ADC[:], m.Adc)
	copy(t.LEDs[:], m.Leds)
	return t
}

// Time returns the capture time.
func (m *Telemetry) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Encode serializes the message.
func (m *Telemetry) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeTelemetry parses a serialized message.
func DecodeTelemetry(data []byte) (*Telemetry, error) {
	var m Telemetry
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
