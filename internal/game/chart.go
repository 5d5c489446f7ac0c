package game

import (
	"errors"
	"fmt"
)

var (
	ErrLaneOutOfRange   = errors.New("note lane out of range")
	ErrUnsortedNotes    = errors.New("note events are not in beat order")
	ErrUnmatchedHoldEnd = errors.New("hold end without an open hold or roll head")
	ErrUnclosedHold     = errors.New("hold or roll head without a matching end")
)

// Chart is the ordered, immutable note timeline for one difficulty of
// one song.
type Chart struct {
	Notes      []*Note
	NoteCount  int64
	HoldCount  int64
	MineCount  int64
	Difficulty Difficulty
}

// Compile validates a raw event list and builds a Chart. HoldEnd events
// are folded into the EndBeat of their head note and do not appear in
// Chart.Notes. Structural problems abort the load; no partial chart is
// returned.
func Compile(events []Note, difficulty Difficulty) (*Chart, error) {
	openHead := make([]*Note, difficulty.NKeys)
	lastBeat := -1.0

	chart := &Chart{Difficulty: difficulty}
	for i := range events {
		ev := events[i]
		if ev.Lane >= difficulty.NKeys {
			return nil, fmt.Errorf("event %d (lane %d of %d): %w", i, ev.Lane, difficulty.NKeys, ErrLaneOutOfRange)
		}
		if ev.Beat < lastBeat {
			return nil, fmt.Errorf("event %d (lane %d, beat %v): %w", i, ev.Lane, ev.Beat, ErrUnsortedNotes)
		}
		lastBeat = ev.Beat

		switch ev.Kind {
		case HoldEnd:
			head := openHead[ev.Lane]
			if head == nil {
				return nil, fmt.Errorf("event %d (lane %d, beat %v): %w", i, ev.Lane, ev.Beat, ErrUnmatchedHoldEnd)
			}
			head.EndBeat = ev.Beat
			openHead[ev.Lane] = nil
			continue
		case HoldStart, RollStart:
			if openHead[ev.Lane] != nil {
				return nil, fmt.Errorf("event %d (lane %d, beat %v): %w", i, ev.Lane, ev.Beat, ErrUnclosedHold)
			}
			note := ev
			openHead[ev.Lane] = &note
			chart.Notes = append(chart.Notes, &note)
			chart.HoldCount++
			continue
		case Mine:
			chart.MineCount++
		case Tap:
			chart.NoteCount++
		case Lift, Fake:
			// kept in the timeline for rendering, never judged
		}
		note := ev
		chart.Notes = append(chart.Notes, &note)
	}

	for lane, head := range openHead {
		if head != nil {
			return nil, fmt.Errorf("lane %d, beat %v: %w", lane, head.Beat, ErrUnclosedHold)
		}
	}
	return chart, nil
}
