package game

import "time"

// Grade is a judged timing window, tightest first. Miss has no window;
// it is assigned when a note ages past the miss horizon unpressed.
type Grade uint8

const (
	Fantastic Grade = iota // W1
	Excellent              // W2
	Great                  // W3
	Decent                 // W4
	WayOff                 // W5
	Miss
	NumGrades = int(Miss) + 1
)

func (g Grade) String() string {
	switch g {
	case Fantastic:
		return "Fantastic"
	case Excellent:
		return "Excellent"
	case Great:
		return "Great"
	case Decent:
		return "Decent"
	case WayOff:
		return "Way Off"
	case Miss:
		return "Miss"
	}
	return "unknown"
}

// BreaksCombo reports whether this grade resets the running combo.
func (g Grade) BreaksCombo() bool {
	switch g {
	case Fantastic, Excellent, Great:
		return false
	case Decent, WayOff, Miss:
		return true
	}
	return true
}

// Judgement pairs a grade with its timing window. A press within Window
// of a note's target time earns at most this grade.
type Judgement struct {
	Grade  Grade
	Window time.Duration
	Name   string
}

// ITG timing windows.
const (
	FantasticWindow = 21500 * time.Microsecond
	ExcellentWindow = 43 * time.Millisecond
	GreatWindow     = 102 * time.Millisecond
	DecentWindow    = 135 * time.Millisecond
	WayOffWindow    = 180 * time.Millisecond

	// MineWindow is the (smaller) radius inside which a press detonates
	// a mine instead of reaching for a later note.
	MineWindow = 70 * time.Millisecond

	// MissAfter is how far past its target a pending note may age
	// before the engine misses it without a press.
	MissAfter = 200 * time.Millisecond
)

// DefaultJudgements is the graded window table, tightest first.
func DefaultJudgements() []Judgement {
	return []Judgement{
		{Fantastic, FantasticWindow, "Fantastic"},
		{Excellent, ExcellentWindow, "Excellent"},
		{Great, GreatWindow, "Great"},
		{Decent, DecentWindow, "Decent"},
		{WayOff, WayOffWindow, "Way Off"},
	}
}

// Input is one key press, carrying the press's own timestamp on the
// song clock. Timing error is always computed from this, never from
// the frame the press was drained on.
type Input struct {
	Lane uint8
	Time time.Duration
}
