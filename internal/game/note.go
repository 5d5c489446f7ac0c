package game

// NoteKind is the closed set of chart event types. The judgment engine
// and theme switch over it exhaustively.
type NoteKind uint8

const (
	Tap NoteKind = iota
	HoldStart
	HoldEnd
	RollStart
	Mine
	Lift
	Fake
)

func (k NoteKind) String() string {
	switch k {
	case Tap:
		return "tap"
	case HoldStart:
		return "hold"
	case HoldEnd:
		return "hold end"
	case RollStart:
		return "roll"
	case Mine:
		return "mine"
	case Lift:
		return "lift"
	case Fake:
		return "fake"
	}
	return "unknown"
}

// Judgable reports whether a key press can consume this kind of note.
// Mines have their own penalty path; lifts, fakes and hold tails are
// never tap-judged.
func (k NoteKind) Judgable() bool {
	switch k {
	case Tap, HoldStart, RollStart:
		return true
	case HoldEnd, Mine, Lift, Fake:
		return false
	}
	return false
}

// Note is one chart event at a musical beat. Immutable after load; all
// runtime state lives on session.ActiveNote.
type Note struct {
	Beat  float64
	Lane  uint8
	Kind  NoteKind
	Denom int // beat subdivision as a denominator, 4 = 1/4

	// EndBeat is the matched tail beat for hold and roll heads, folded
	// in from the HoldEnd event at compile time. Zero otherwise.
	EndBeat float64
}
