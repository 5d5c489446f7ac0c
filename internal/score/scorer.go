package score

import (
	"git.lost.host/meutraa/steps/internal/game"
	"git.lost.host/meutraa/steps/internal/session"
	"git.lost.host/meutraa/steps/internal/timing"
)

// Scorer persists play-throughs and rebuilds their results.
type Scorer interface {
	Init() error
	Deinit()

	// Save the inputs and tally of a finished session
	Save(chart *game.Chart, history *History) error

	// Load all previous histories for the chart
	Load(chart *game.Chart) ([]History, error)

	// Replay feeds a history's inputs through a fresh session and
	// returns the resulting tally
	Replay(chart *game.Chart, tempo *timing.Data, cfg session.Config, history *History) (session.Counters, error)
}

// History is one recorded play-through of one chart.
type History struct {
	Sum      string
	Rate     float64
	Inputs   []game.Input
	Counters session.Counters
}
