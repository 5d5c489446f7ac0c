package theme

import "git.lost.host/meutraa/steps/internal/game"

// Color is an RGB triple for truecolor terminal output.
type Color struct {
	R, G, B uint8
}

// Theme turns draw requests into terminal cells.
type Theme interface {
	RenderNote(lane uint8, denom int, frame int) string
	RenderMine(lane uint8, denom int) string
	RenderHoldBody(lane uint8) string
	RenderHitField(lane uint8) string
	RenderJudgement(grade game.Grade, alpha float64) string
	RenderExplosion(lane uint8, grade game.Grade) string
	RotationForLane(lane uint8) float64
}
