package parser

import (
	"git.lost.host/meutraa/steps/internal/game"
	"git.lost.host/meutraa/steps/internal/timing"
)

// ChartData is one parsed difficulty: the tempo map inputs and the raw
// beat-indexed event list, ready for timing.New and game.Compile.
type ChartData struct {
	Difficulty game.Difficulty
	Offset     float64 // seconds of audio before beat 0
	BPMs       []timing.BPMSegment
	Stops      []timing.StopSegment
	Events     []game.Note
}

type Parser interface {
	Parse(file string) ([]*ChartData, error)
}
