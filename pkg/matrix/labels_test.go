package matrix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLabels(t *testing.T) {
	require.Nil(t, ParseLabels("", " ", ""))

	l := ParseLabels("Esc, Enter,,Shift", "", "power")
	require.NotNil(t, l)
	require.Equal(t, "Esc", l.Key(0))
	require.Equal(t, "Enter", l.Key(1))
	require.Equal(t, "K2", l.Key(2))
	require.Equal(t, "Shift", l.Key(3))
	require.Equal(t, "K23", l.Key(23))
	require.Equal(t, "ADC4", l.ADCChannel(4))
	require.Equal(t, "power", l.LED(0))
	require.Equal(t, "LED1", l.LED(1))
}

func TestNilLabels(t *testing.T) {
	var l *Labels
	require.Equal(t, "K5", l.Key(5))
	require.Equal(t, "ADC0", l.ADCChannel(0))
	require.Equal(t, "LED19", l.LED(19))
}
