package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/keymatrix/pkg/matrix"
)

func TestParseHexBytes(t *testing.T) {
	testCases := []struct {
		args   []string
		expect []byte
		err    bool
	}{
		{args: []string{"AA", "01", "ff"}, expect: []byte{0xAA, 0x01, 0xFF}},
		{args: []string{"0x1", "0X2f"}, expect: []byte{0x01, 0x2F}},
		{args: []string{"aa01ff"}, expect: []byte{0xAA, 0x01, 0xFF}},
		{args: []string{"0xaa01", "3"}, expect: []byte{0xAA, 0x01, 0x03}},
		{args: []string{"zz"}, err: true},
		{args: []string{"abc"}, err: true},
	}
	for _, tc := range testCases {
		data, err := ParseHexBytes(tc.args...)
		if tc.err {
			require.Errorf(t, err, "%v", tc.args)
			continue
		}
		require.NoErrorf(t, err, "%v", tc.args)
		require.Equal(t, tc.expect, data)
	}
}

func TestViewOf(t *testing.T) {
	tm := &matrix.Telemetry{Index: 3, Valid: true}
	tm.Keys[1] = true
	tm.Keys[23] = true
	tm.ADC[0] = 200
	tm.LEDs[4] = true
	tm.Raw = matrix.Encode(tm)

	v := ViewOf(tm)
	require.Equal(t, []int{1, 23}, v.Keys)
	require.Equal(t, []int{4}, v.LEDs)
	require.Len(t, v.ADC, matrix.NumADC)
	require.Equal(t, 200, v.ADC[0])
	require.Len(t, v.Raw, matrix.FrameSize*2)
	require.Equal(t, "#3 valid keys=[1 23] adc=[200 0 0 0 0 0 0 0 0 0 0 0 0 0] leds=[4]", v.String())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	require.Contains(t, string(out), `"keys":[1,23]`)
}

func TestViewOfEmpty(t *testing.T) {
	v := ViewOf(&matrix.Telemetry{})
	require.Equal(t, []int{}, v.Keys)
	require.Equal(t, []int{}, v.LEDs)
	require.Equal(t, "", v.Raw)
	require.Equal(t, "#0 invalid keys=[] adc=[0 0 0 0 0 0 0 0 0 0 0 0 0 0] leds=[]", v.String())
}

func TestViewNamed(t *testing.T) {
	tm := &matrix.Telemetry{Index: 7, Valid: true}
	tm.Keys[0] = true
	tm.Keys[2] = true
	tm.LEDs[1] = true

	v := ViewOf(tm).Named(matrix.ParseLabels("Esc", "", ",power"))
	require.Equal(t, []string{"Esc", "K2"}, v.KeyNames)
	require.Equal(t, []string{"power"}, v.LEDNames)
	require.Equal(t, "#7 valid keys=[Esc K2] adc=[0 0 0 0 0 0 0 0 0 0 0 0 0 0] leds=[power]", v.String())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	require.Contains(t, string(out), `"keys":[0,2]`)
	require.Contains(t, string(out), `"key_names":["Esc","K2"]`)
}
