package scroll

import (
	"fmt"
	"strconv"
	"strings"
)

// ArrowSpacing is the pixel distance between consecutive beats at an
// effective 60 bpm-seconds, the usual arrow height.
const ArrowSpacing = 64.0

// SpeedKind selects how the player's scroll rate tracks the chart.
type SpeedKind uint8

const (
	// CMod scrolls at a constant bpm regardless of the chart's tempo.
	CMod SpeedKind = iota
	// XMod multiplies the chart's current bpm.
	XMod
	// MMod scales so the chart's fastest section reads at the target bpm.
	MMod
)

// Speed is a player scroll speed setting, e.g. "C600", "X2", "M550".
type Speed struct {
	Kind  SpeedKind
	Value float64
}

// DefaultSpeed matches a comfortable constant scroll.
var DefaultSpeed = Speed{Kind: CMod, Value: 600}

func ParseSpeed(s string) (Speed, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Speed{}, fmt.Errorf("scroll speed is empty")
	}
	var kind SpeedKind
	switch trimmed[0] {
	case 'C', 'c':
		kind = CMod
	case 'X', 'x':
		kind = XMod
	case 'M', 'm':
		kind = MMod
	default:
		return Speed{}, fmt.Errorf("scroll speed %q must start with C, X or M", trimmed)
	}
	value, err := strconv.ParseFloat(trimmed[1:], 64)
	if nil != err {
		return Speed{}, fmt.Errorf("scroll speed %q is not a valid number: %w", trimmed, err)
	}
	if value <= 0 {
		return Speed{}, fmt.Errorf("scroll speed %q must be greater than zero", trimmed)
	}
	return Speed{Kind: kind, Value: value}, nil
}

func (s Speed) String() string {
	prefix := "C"
	switch s.Kind {
	case XMod:
		prefix = "X"
	case MMod:
		prefix = "M"
	}
	return fmt.Sprintf("%s%g", prefix, s.Value)
}

// EffectiveBPM is the bpm the notefield appears to scroll at.
func (s Speed) EffectiveBPM(currentBPM, referenceBPM float64) float64 {
	switch s.Kind {
	case CMod:
		return s.Value
	case XMod:
		return currentBPM * s.Value
	case MMod:
		if referenceBPM > 0 {
			return currentBPM * s.Value / referenceBPM
		}
		return currentBPM
	}
	return s.Value
}

// PixelsPerSecond converts the effective bpm to a scroll rate.
func (s Speed) PixelsPerSecond(currentBPM, referenceBPM float64) float64 {
	bpm := s.EffectiveBPM(currentBPM, referenceBPM)
	if bpm <= 0 {
		return 0
	}
	return bpm / 60.0 * ArrowSpacing
}
