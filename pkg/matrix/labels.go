package matrix

import (
	"fmt"
	"strings"
)

// Labels names keys, ADC channels and LEDs for display. Missing or
// empty names fall back to K<n>, ADC<n> and LED<n>.
type Labels struct {
	Keys []string
	ADC  []string
	LEDs []string
}

// ParseLabels builds Labels from comma separated name lists. It returns
// nil when all lists are empty.
func ParseLabels(keys, adc, leds string) *Labels {
	l := &Labels{Keys: splitNames(keys), ADC: splitNames(adc), LEDs: splitNames(leds)}
	if l.Keys == nil && l.ADC == nil && l.LEDs == nil {
		return nil
	}
	return l
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	names := strings.Split(s, ",")
	for n := range names {
		names[n] = strings.TrimSpace(names[n])
	}
	return names
}

// Key returns the name of key n.
func (l *Labels) Key(n int) string {
	if l == nil {
		return label(nil, n, "K")
	}
	return label(l.Keys, n, "K")
}

// ADCChannel returns the name of ADC channel n.
func (l *Labels) ADCChannel(n int) string {
	if l == nil {
		return label(nil, n, "ADC")
	}
	return label(l.ADC, n, "ADC")
}

// LED returns the name of LED n.
func (l *Labels) LED(n int) string {
	if l == nil {
		return label(nil, n, "LED")
	}
	return label(l.LEDs, n, "LED")
}

func label(names []string, n int, prefix string) string {
	if n < len(names) && names[n] != "" {
		return names[n]
	}
	return fmt.Sprintf("%s%d", prefix, n)
}
