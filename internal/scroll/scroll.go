package scroll

import "time"

// Projector maps a note's target time to a screen row. Positioning is
// by time-to-target, not beat-to-target, so a note's motion stays
// linear across bpm changes while note density still follows the
// tempo.
type Projector struct {
	ReceptorY    float64 // screen Y of the hit line, Y grows downward
	WindowHeight float64
	RefHeight    float64 // height BaseSpeed is calibrated against
	BaseSpeed    float64 // pixels per second at RefHeight
}

// EffectiveSpeed is BaseSpeed scaled to the actual window height.
func (p Projector) EffectiveSpeed() float64 {
	if p.RefHeight <= 0 {
		return p.BaseSpeed
	}
	return p.BaseSpeed * p.WindowHeight / p.RefHeight
}

// Y returns the screen row for a note due at target when the song
// clock reads now. Future notes (dt > 0) sit above the receptor and
// fall toward it; dt < 0 means the note is past its target.
func (p Projector) Y(target, now time.Duration) float64 {
	dt := (target - now).Seconds()
	return p.ReceptorY - dt*p.EffectiveSpeed()
}
