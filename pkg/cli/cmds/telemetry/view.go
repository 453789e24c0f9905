package telemetry

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/keymatrix/pkg/matrix"
)

// SnapshotView is the printable form of a telemetry snapshot.
type SnapshotView struct {
	Index byte   `json:"index"`
	Valid bool   `json:"valid"`
	Keys  []int  `json:"keys"`
	ADC   []int  `json:"adc"`
	LEDs  []int  `json:"leds"`
	Raw   string `json:"raw"`

	KeyNames []string `json:"key_names,omitempty"`
	LEDNames []string `json:"led_names,omitempty"`
}

// ViewOf creates the SnapshotView of t.
func ViewOf(t *matrix.Telemetry) *SnapshotView {
	v := &SnapshotView{
		Index: t.Index,
		Valid: t.Valid,
		Keys:  indicesOn(t.Keys[:]),
		ADC:   make([]int, len(t.ADC)),
		LEDs:  indicesOn(t.LEDs[:]),
		Raw:   hex.EncodeToString(t.Raw),
	}
	for n, val := range t.ADC {
		v.ADC[n] = int(val)
	}
	return v
}

// Named fills the display names of pressed keys and lit LEDs.
func (v *SnapshotView) Named(labels *matrix.Labels) *SnapshotView {
	v.KeyNames = make([]string, len(v.Keys))
	for n, key := range v.Keys {
		v.KeyNames[n] = labels.Key(key)
	}
	v.LEDNames = make([]string, len(v.LEDs))
	for n, led := range v.LEDs {
		v.LEDNames[n] = labels.LED(led)
	}
	return v
}

// String implements fmt.Stringer.
func (v *SnapshotView) String() string {
	state := "valid"
	if !v.Valid {
		state = "invalid"
	}
	var keys, leds interface{} = v.Keys, v.LEDs
	if v.KeyNames != nil {
		keys = v.KeyNames
	}
	if v.LEDNames != nil {
		leds = v.LEDNames
	}
	return fmt.Sprintf("#%d %s keys=%v adc=%v leds=%v", v.Index, state, keys, v.ADC, leds)
}

func indicesOn(bits []bool) []int {
	on := []int{}
	for n, b := range bits {
		if b {
			on = append(on, n)
		}
	}
	return on
}

// ParseHexBytes parses bytes given as separate hex tokens like
// "AA 0x01 ff" or a single run like "aa01ff".
func ParseHexBytes(args ...string) ([]byte, error) {
	var out []byte
	for _, arg := range args {
		tok := strings.TrimPrefix(strings.TrimPrefix(arg, "0x"), "0X")
		if len(tok) <= 2 {
			val, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid byte %q", arg)
			}
			out = append(out, byte(val))
			continue
		}
		data, err := hex.DecodeString(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %v", arg, err)
		}
		out = append(out, data...)
	}
	return out, nil
}
