package msgs

import (
	"encoding/json"

	"github.com/robotalks/keymatrix/pkg/matrix"
)

// Meta describes a device, published retained next to its telemetry.
type Meta struct {
	Device      string `json:"device"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
	Keys        int    `json:"keys"`
	ADC         int    `json:"adc"`
	LEDs        int    `json:"leds"`
}

// NewMeta creates Meta with the matrix dimensions filled.
func NewMeta(device, link string) *Meta {
	return &Meta{
		Device: device,
		Link:   link,
		Keys:   matrix.NumKeys,
		ADC:    matrix.NumADC,
		LEDs:   matrix.NumLEDs,
	}
}

// JSON encodes the meta.
func (m *Meta) JSON() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodeMeta parses meta JSON.
func DecodeMeta(data []byte) (*Meta, error) {
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
