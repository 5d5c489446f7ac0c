package session

import (
	"testing"
	"time"

	"git.lost.host/meutraa/steps/internal/game"
	"git.lost.host/meutraa/steps/internal/timing"
)

func newSession(t *testing.T, events []game.Note) *Session {
	t.Helper()
	tempo, err := timing.New([]timing.BPMSegment{{StartBeat: 0, BPM: 120}}, nil, 0)
	if nil != err {
		t.Fatal("unable to build tempo map", err)
	}
	chart, err := game.Compile(events, game.Difficulty{Name: "test", NKeys: 4})
	if nil != err {
		t.Fatal("unable to compile chart", err)
	}
	s, err := New(chart, tempo, DefaultConfig())
	if nil != err {
		t.Fatal("unable to build session", err)
	}
	return s
}

func TestJudgeGradesByAbsoluteError(t *testing.T) {
	// At 120 bpm, beat 4 lands at exactly 2s
	tests := map[time.Duration]game.Grade{
		2010 * time.Millisecond: game.Fantastic, // 10ms late
		1990 * time.Millisecond: game.Fantastic, // 10ms early, same grade
		2040 * time.Millisecond: game.Excellent,
		2100 * time.Millisecond: game.Great,
		2120 * time.Millisecond: game.Decent,
		2150 * time.Millisecond: game.WayOff, // 150ms: beyond 135, within 180
	}
	for press, expected := range tests {
		s := newSession(t, []game.Note{{Beat: 4, Lane: 1, Kind: game.Tap}})
		s.Tick(press, nil)
		res := s.Judge(game.Input{Lane: 1, Time: press})
		if res.Kind != ResultHit || res.Grade != expected {
			t.Log("press   ", press)
			t.Log("out     ", res.Kind, res.Grade, res.Error)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}

func TestJudgeUsesInputTimestampNotTickTime(t *testing.T) {
	s := newSession(t, []game.Note{{Beat: 4, Lane: 0, Kind: game.Tap}})
	// The frame has advanced well past the note; the press itself was
	// sampled at 2.01s and must grade from that
	s.Tick(2080*time.Millisecond, nil)
	res := s.Judge(game.Input{Lane: 0, Time: 2010 * time.Millisecond})
	if res.Grade != game.Fantastic {
		t.Fatal("expected Fantastic from the event timestamp, got", res.Grade)
	}
	if res.Error != 10*time.Millisecond {
		t.Fatal("expected +10ms error, got", res.Error)
	}
}

func TestEmptyPressIsNotAMiss(t *testing.T) {
	s := newSession(t, []game.Note{{Beat: 4, Lane: 0, Kind: game.Tap}})
	s.Tick(time.Second, nil)
	// A second early: outside every window
	res := s.Judge(game.Input{Lane: 0, Time: time.Second})
	if res.Kind != ResultEmpty {
		t.Fatal("expected empty press, got", res.Kind)
	}
	c := s.Counters()
	for grade, n := range c.Grades {
		if n != 0 {
			t.Fatal("empty press counted as", game.Grade(grade))
		}
	}
	if c.EmptyPresses != 1 {
		t.Fatal("empty press not tallied, got", c.EmptyPresses)
	}
	// The note is still pending and judgable afterwards
	res = s.Judge(game.Input{Lane: 0, Time: 2 * time.Second})
	if res.Kind != ResultHit || res.Grade != game.Fantastic {
		t.Fatal("note consumed by the empty press", res.Kind, res.Grade)
	}
}

func TestWrongLaneDoesNotConsume(t *testing.T) {
	s := newSession(t, []game.Note{{Beat: 4, Lane: 2, Kind: game.Tap}})
	s.Tick(2*time.Second, nil)
	if res := s.Judge(game.Input{Lane: 1, Time: 2 * time.Second}); res.Kind != ResultEmpty {
		t.Fatal("press in another lane hit the note", res.Kind)
	}
}

func TestNoDoubleJudging(t *testing.T) {
	s := newSession(t, []game.Note{{Beat: 4, Lane: 0, Kind: game.Tap}})
	s.Tick(2*time.Second, nil)
	if res := s.Judge(game.Input{Lane: 0, Time: 2 * time.Second}); res.Kind != ResultHit {
		t.Fatal("first press missed", res.Kind)
	}
	if res := s.Judge(game.Input{Lane: 0, Time: 2*time.Second + time.Millisecond}); res.Kind != ResultEmpty {
		t.Fatal("judged note was judged again", res.Kind)
	}
	if c := s.Counters(); c.Grades[game.Fantastic] != 1 {
		t.Fatal("grade counted twice", c.Grades)
	}
}

func TestAutoMissFiresOncePreciselyPastHorizon(t *testing.T) {
	s := newSession(t, []game.Note{{Beat: 4, Lane: 0, Kind: game.Tap}})
	// Exactly at the horizon: not yet a miss
	s.Tick(2200*time.Millisecond, nil)
	if c := s.Counters(); c.Grades[game.Miss] != 0 {
		t.Fatal("missed on the horizon boundary")
	}
	// One tick past: missed, exactly once
	s.Tick(2200*time.Millisecond+time.Millisecond, nil)
	if c := s.Counters(); c.Grades[game.Miss] != 1 {
		t.Fatal("expected one miss, got", c.Grades[game.Miss])
	}
	// Later ticks and presses change nothing
	s.Tick(3*time.Second, nil)
	if res := s.Judge(game.Input{Lane: 0, Time: 2205 * time.Millisecond}); res.Kind != ResultEmpty {
		t.Fatal("missed note still consumable", res.Kind)
	}
	if c := s.Counters(); c.Grades[game.Miss] != 1 {
		t.Fatal("miss fired more than once, got", c.Grades[game.Miss])
	}
}

func TestTieBreaksByChartOrder(t *testing.T) {
	// Degenerate chart: two taps on the same beat and lane
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.Tap},
		{Beat: 4, Lane: 0, Kind: game.Tap},
	})
	s.Tick(2*time.Second, nil)
	res := s.Judge(game.Input{Lane: 0, Time: 2 * time.Second})
	if res.Kind != ResultHit || res.Note.Index != 0 {
		t.Fatal("expected the first inserted note, got index", res.Note.Index)
	}
	res = s.Judge(game.Input{Lane: 0, Time: 2 * time.Second})
	if res.Kind != ResultHit || res.Note.Index != 1 {
		t.Fatal("expected the second note next, got", res.Kind)
	}
}

func TestClosestNoteWins(t *testing.T) {
	// Beats 3 and 4 are 1.5s and 2.0s; a press at 1.9s is nearer beat 4
	s := newSession(t, []game.Note{
		{Beat: 3, Lane: 0, Kind: game.Tap},
		{Beat: 4, Lane: 0, Kind: game.Tap},
	})
	s.Tick(1900*time.Millisecond, nil)
	res := s.Judge(game.Input{Lane: 0, Time: 1900 * time.Millisecond})
	if res.Kind != ResultHit || res.Note.Index != 1 {
		t.Fatal("nearest note not selected", res.Note)
	}
}

func TestMinePenaltyPath(t *testing.T) {
	s := newSession(t, []game.Note{{Beat: 4, Lane: 0, Kind: game.Mine}})
	s.Tick(2*time.Second, nil)
	lifeBefore, _ := s.Life()
	res := s.Judge(game.Input{Lane: 0, Time: 2*time.Second + 30*time.Millisecond})
	if res.Kind != ResultMine {
		t.Fatal("expected mine hit, got", res.Kind)
	}
	c := s.Counters()
	if c.MinesHit != 1 {
		t.Fatal("mine hit not tallied", c.MinesHit)
	}
	for grade, n := range c.Grades {
		if n != 0 {
			t.Fatal("mine hit produced a grade", game.Grade(grade))
		}
	}
	if life, _ := s.Life(); life >= lifeBefore {
		t.Fatal("mine hit did not drain life")
	}
	// Consumed: a second press is an empty press
	if res := s.Judge(game.Input{Lane: 0, Time: 2*time.Second + 40*time.Millisecond}); res.Kind != ResultEmpty {
		t.Fatal("mine consumed twice", res.Kind)
	}
}

func TestMineOutsideItsWindowIsIgnored(t *testing.T) {
	// Mine at beat 4, tap at beat 4.5 (2.25s). A press at 2.1s is
	// 100ms from the mine (outside the 70ms mine window) and 150ms
	// from the tap: the tap is judged, the mine untouched.
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.Mine},
		{Beat: 4.5, Lane: 0, Kind: game.Tap},
	})
	s.Tick(2100*time.Millisecond, nil)
	res := s.Judge(game.Input{Lane: 0, Time: 2100 * time.Millisecond})
	if res.Kind != ResultHit || res.Grade != game.WayOff {
		t.Fatal("expected the tap at WayOff, got", res.Kind, res.Grade)
	}
	if c := s.Counters(); c.MinesHit != 0 {
		t.Fatal("mine detonated from outside its window")
	}
}

func TestMineAvoidedByDoingNothing(t *testing.T) {
	s := newSession(t, []game.Note{{Beat: 4, Lane: 0, Kind: game.Mine}})
	s.Tick(2*time.Second+100*time.Millisecond, nil)
	c := s.Counters()
	if c.MinesAvoided != 1 || c.MinesHit != 0 {
		t.Fatal("mine not avoided", c.MinesAvoided, c.MinesHit)
	}
}

func TestLiftsAndFakesAreNeverJudged(t *testing.T) {
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.Fake},
		{Beat: 4, Lane: 0, Kind: game.Lift},
	})
	s.Tick(2*time.Second, nil)
	if res := s.Judge(game.Input{Lane: 0, Time: 2 * time.Second}); res.Kind != ResultEmpty {
		t.Fatal("fake or lift consumed by a press", res.Kind)
	}
	// Nor do they auto-miss
	s.Tick(10*time.Second, nil)
	if c := s.Counters(); c.Grades[game.Miss] != 0 {
		t.Fatal("fake or lift auto-missed")
	}
}

func TestHoldHeldToCompletion(t *testing.T) {
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.HoldStart},
		{Beat: 8, Lane: 0, Kind: game.HoldEnd},
	})
	s.Tick(2*time.Second, nil)
	if res := s.Judge(game.Input{Lane: 0, Time: 2 * time.Second}); res.Kind != ResultHit {
		t.Fatal("head not judged", res.Kind)
	}
	held := []bool{true, false, false, false}
	for ms := 2100; ms <= 4100; ms += 100 {
		s.Tick(time.Duration(ms)*time.Millisecond, held)
	}
	c := s.Counters()
	if c.HoldsHeld != 1 || c.HoldsLetGo != 0 {
		t.Fatal("hold not held", c.HoldsHeld, c.HoldsLetGo)
	}
}

func TestHoldCompletionKeepsHeadGrade(t *testing.T) {
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.HoldStart},
		{Beat: 8, Lane: 0, Kind: game.HoldEnd},
	})
	// 120ms late on the head: Decent
	s.Tick(2120*time.Millisecond, nil)
	if res := s.Judge(game.Input{Lane: 0, Time: 2120 * time.Millisecond}); res.Grade != game.Decent {
		t.Fatal("head not Decent", res.Grade)
	}
	held := []bool{true, false, false, false}
	for ms := 2200; ms <= 4100; ms += 100 {
		s.Tick(time.Duration(ms)*time.Millisecond, held)
	}
	if c := s.Counters(); c.HoldsHeld != 1 {
		t.Fatal("hold not held", c.HoldsHeld)
	}
	snap := s.Snapshot()
	if len(snap.Effects) != 1 || snap.Effects[0].Grade != game.Decent {
		t.Fatal("completion flash changed the head's grade", snap.Effects)
	}
}

func TestHoldDroppedPastGrace(t *testing.T) {
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.HoldStart},
		{Beat: 8, Lane: 0, Kind: game.HoldEnd},
	})
	s.Tick(2*time.Second, nil)
	s.Judge(game.Input{Lane: 0, Time: 2 * time.Second})
	s.Release(game.Input{Lane: 0, Time: 2100 * time.Millisecond})
	released := []bool{false, false, false, false}
	for ms := 2100; ms <= 3000; ms += 50 {
		s.Tick(time.Duration(ms)*time.Millisecond, released)
	}
	c := s.Counters()
	if c.HoldsLetGo != 1 || c.HoldsHeld != 0 {
		t.Fatal("dropped hold not let go", c.HoldsLetGo, c.HoldsHeld)
	}
}

func TestHoldRecoveredWithinGrace(t *testing.T) {
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.HoldStart},
		{Beat: 8, Lane: 0, Kind: game.HoldEnd},
	})
	s.Tick(2*time.Second, nil)
	s.Judge(game.Input{Lane: 0, Time: 2 * time.Second})
	// Let go for 200ms of the 320ms grace, then re-press
	s.Tick(2200*time.Millisecond, []bool{false, false, false, false})
	s.Tick(2400*time.Millisecond, []bool{true, false, false, false})
	for ms := 2500; ms <= 4100; ms += 100 {
		s.Tick(time.Duration(ms)*time.Millisecond, []bool{true, false, false, false})
	}
	c := s.Counters()
	if c.HoldsHeld != 1 || c.HoldsLetGo != 0 {
		t.Fatal("recovered hold counted as let go", c.HoldsHeld, c.HoldsLetGo)
	}
}

func TestRollNeedsReTaps(t *testing.T) {
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.RollStart},
		{Beat: 8, Lane: 0, Kind: game.HoldEnd},
	})
	s.Tick(2*time.Second, nil)
	s.Judge(game.Input{Lane: 0, Time: 2 * time.Second})
	// Re-tap every 300ms, inside the 350ms roll grace
	for ms := 2300; ms <= 4100; ms += 300 {
		at := time.Duration(ms) * time.Millisecond
		s.Tick(at, nil)
		s.Judge(game.Input{Lane: 0, Time: at}) // empty presses that re-arm the roll
	}
	if c := s.Counters(); c.HoldsHeld != 1 {
		t.Fatal("re-tapped roll not held", c.HoldsHeld, c.HoldsLetGo)
	}

	// Without re-taps the roll drains and drops
	s = newSession(t, []game.Note{
		{Beat: 4, Lane: 0, Kind: game.RollStart},
		{Beat: 8, Lane: 0, Kind: game.HoldEnd},
	})
	s.Tick(2*time.Second, nil)
	s.Judge(game.Input{Lane: 0, Time: 2 * time.Second})
	for ms := 2100; ms <= 3000; ms += 100 {
		s.Tick(time.Duration(ms)*time.Millisecond, []bool{true, false, false, false})
	}
	if c := s.Counters(); c.HoldsLetGo != 1 {
		t.Fatal("stale roll not let go", c.HoldsLetGo)
	}
}

func TestNotesOutsideTheWindowAreNotJudgable(t *testing.T) {
	// Beat 64 is 32s away, far beyond the 16-beat spawn horizon
	s := newSession(t, []game.Note{{Beat: 64, Lane: 0, Kind: game.Tap}})
	s.Tick(0, nil)
	if res := s.Judge(game.Input{Lane: 0, Time: 0}); res.Kind != ResultEmpty {
		t.Fatal("unspawned note was judged", res.Kind)
	}
}

func TestWindowIsBoundedByLocalDensity(t *testing.T) {
	// A long sparse chart: the active window only ever holds notes
	// inside the draw horizon, not the whole chart
	events := make([]game.Note, 0, 1000)
	for i := 0; i < 1000; i++ {
		events = append(events, game.Note{Beat: float64(i * 4), Lane: uint8(i % 4), Kind: game.Tap})
	}
	s := newSession(t, events)
	s.Tick(2*time.Second, nil)
	if len(s.active) > 8 {
		t.Fatal("active window grew with chart length:", len(s.active))
	}
}

func TestComboTracking(t *testing.T) {
	s := newSession(t, []game.Note{
		{Beat: 2, Lane: 0, Kind: game.Tap},
		{Beat: 4, Lane: 1, Kind: game.Tap},
		{Beat: 6, Lane: 2, Kind: game.Tap},
	})
	s.Tick(time.Second, nil)
	s.Judge(game.Input{Lane: 0, Time: time.Second})
	s.Tick(2*time.Second, nil)
	s.Judge(game.Input{Lane: 1, Time: 2 * time.Second})
	if combo, _ := s.Combo(); combo != 2 {
		t.Fatal("expected combo 2, got", combo)
	}
	// WayOff breaks combo
	s.Tick(3150*time.Millisecond, nil)
	s.Judge(game.Input{Lane: 2, Time: 3150 * time.Millisecond})
	combo, missCombo := s.Combo()
	if combo != 0 || missCombo != 1 {
		t.Fatal("combo not broken", combo, missCombo)
	}
	if c := s.Counters(); c.MaxCombo != 2 {
		t.Fatal("max combo lost", c.MaxCombo)
	}
}

func TestSnapshotProjectsActiveNotes(t *testing.T) {
	s := newSession(t, []game.Note{
		{Beat: 4, Lane: 1, Kind: game.Tap},
		{Beat: 5, Lane: 2, Kind: game.Tap},
	})
	s.Tick(2*time.Second, nil)
	snap := s.Snapshot()
	if len(snap.Notes) != 2 {
		t.Fatal("expected 2 drawable notes, got", len(snap.Notes))
	}
	// The note on its target time sits on the receptor
	if snap.Notes[0].Y != s.cfg.Projector.ReceptorY {
		t.Fatal("on-time note off the receptor", snap.Notes[0].Y)
	}
	// The later note is above it
	if snap.Notes[1].Y >= snap.Notes[0].Y {
		t.Fatal("future note not above the receptor")
	}

	s.Judge(game.Input{Lane: 1, Time: 2 * time.Second})
	snap = s.Snapshot()
	if len(snap.Notes) != 1 {
		t.Fatal("consumed note still drawn")
	}
	if len(snap.Effects) != 1 || snap.Effects[0].Lane != 1 {
		t.Fatal("judgment effect missing from snapshot")
	}
}

func TestFinished(t *testing.T) {
	s := newSession(t, []game.Note{{Beat: 4, Lane: 0, Kind: game.Tap}})
	s.Tick(2*time.Second, nil)
	if s.Finished() {
		t.Fatal("finished with a pending note")
	}
	s.Judge(game.Input{Lane: 0, Time: 2 * time.Second})
	if !s.Finished() {
		t.Fatal("not finished after the last note resolved")
	}
}
