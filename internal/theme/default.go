package theme

import (
	"fmt"

	"git.lost.host/meutraa/steps/internal/game"
)

type DefaultTheme struct{}

const mineSym = "⨯"

var (
	noteSyms  = [...]string{"⬤", "◓", "◑", "◒", "◐", "◓", "◑", "◒"}
	holdSym   = "┃"
	barSym    = "-"
	explosion = "✶"

	// One texture, rotated per receptor direction: left, down, up,
	// right, then mirrored for doubles.
	laneRotation = [...]float64{90, 0, 180, 270, 90, 0, 180, 270}

	// Tint by beat subdivision, keyed by the denominator of the
	// note's position inside its measure.
	noteColors = map[int]Color{
		1:  {236, 30, 0},    // 4th red
		2:  {0, 118, 236},   // 8th blue
		3:  {106, 0, 236},   // 12th purple
		4:  {236, 195, 0},   // 16th yellow
		6:  {236, 0, 106},   // 24th pink
		8:  {236, 128, 0},   // 32nd orange
		12: {173, 236, 236}, // 48th light blue
		16: {0, 236, 128},   // 64th green
		-1: {255, 255, 255}, // other white
	}

	gradeColors = [game.NumGrades]Color{
		{173, 236, 236}, // Fantastic
		{236, 195, 0},   // Excellent
		{0, 236, 128},   // Great
		{106, 106, 106}, // Decent
		{236, 128, 0},   // Way Off
		{236, 30, 0},    // Miss
	}
)

func getNoteColor(d int) Color {
	col, ok := noteColors[d]
	if !ok {
		return noteColors[-1]
	}
	return col
}

func colored(c Color, s string) string {
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, s)
}

func (t *DefaultTheme) RenderNote(lane uint8, denom int, frame int) string {
	// One note texture; the lane's receptor angle phase-shifts the
	// spin instead of needing a glyph set per direction
	rot := int(t.RotationForLane(lane)) / 90
	return colored(getNoteColor(denom), noteSyms[(frame+rot)%len(noteSyms)])
}

func (t *DefaultTheme) RenderMine(lane uint8, denom int) string {
	return colored(getNoteColor(1), mineSym)
}

func (t *DefaultTheme) RenderHoldBody(lane uint8) string {
	return colored(getNoteColor(2), holdSym)
}

func (t *DefaultTheme) RenderHitField(lane uint8) string {
	return barSym
}

func (t *DefaultTheme) RenderJudgement(grade game.Grade, alpha float64) string {
	c := gradeColors[grade]
	// Truecolor has no alpha; fade by scaling toward black
	c.R = uint8(float64(c.R) * alpha)
	c.G = uint8(float64(c.G) * alpha)
	c.B = uint8(float64(c.B) * alpha)
	return colored(c, grade.String())
}

func (t *DefaultTheme) RenderExplosion(lane uint8, grade game.Grade) string {
	return colored(gradeColors[grade], explosion)
}

func (t *DefaultTheme) RotationForLane(lane uint8) float64 {
	return laneRotation[int(lane)%len(laneRotation)]
}
