// Package session owns the runtime state of one play-through of one
// chart: the sliding window of active notes, the judgment engine, hold
// tracking, the life meter and the per-grade counters. The caller owns
// the Session and drives it from a single update loop; nothing here is
// a package-level singleton.
package session

import (
	"errors"
	"fmt"
	"time"

	"git.lost.host/meutraa/steps/internal/effects"
	"git.lost.host/meutraa/steps/internal/game"
	"git.lost.host/meutraa/steps/internal/scroll"
	"git.lost.host/meutraa/steps/internal/timing"
)

var (
	ErrNoJudgements     = errors.New("judgement table is empty")
	ErrUnsortedWindows  = errors.New("judgement windows are not ascending")
	ErrMissInsideWindow = errors.New("miss horizon must lie beyond the widest window")
)

// Config is the fixed set of numeric options the engine runs under.
type Config struct {
	Judgements []game.Judgement // ascending windows, W1 first
	MineWindow time.Duration
	MissAfter  time.Duration // auto-miss horizon past the target time

	DrawBeatsForward float64
	DrawBeatsBack    float64

	HoldGrace time.Duration // time a dropped hold may be recovered in
	RollGrace time.Duration // time between required roll re-taps

	Projector scroll.Projector

	Explosion time.Duration
	Text      time.Duration
	TextFade  time.Duration
}

// DefaultConfig mirrors the ITG windows and Simply Love hold grace.
func DefaultConfig() Config {
	return Config{
		Judgements:       game.DefaultJudgements(),
		MineWindow:       game.MineWindow,
		MissAfter:        game.MissAfter,
		DrawBeatsForward: 16,
		DrawBeatsBack:    4,
		HoldGrace:        320 * time.Millisecond,
		RollGrace:        350 * time.Millisecond,
		Projector:        scroll.Projector{ReceptorY: 125, WindowHeight: 1080, RefHeight: 1080, BaseSpeed: 640},
		Explosion:        600 * time.Millisecond,
		Text:             800 * time.Millisecond,
		TextFade:         200 * time.Millisecond,
	}
}

type noteState uint8

const (
	statePending noteState = iota
	stateJudged
	stateAutoMissed
	stateMineHit
	stateMineAvoided
)

// ActiveNote is the runtime projection of one chart note while it is
// inside the draw/judge horizon.
type ActiveNote struct {
	*game.Note
	Index      int // position in chart order, ties break ascending
	TargetTime time.Duration
	EndTime    time.Duration // hold and roll heads only

	state   noteState
	Grade   game.Grade
	Error   time.Duration // signed press error, valid once judged
	HitTime time.Duration
}

// Pending reports whether the note can still be consumed or missed.
func (n *ActiveNote) Pending() bool { return n.state == statePending }

// Consumed reports whether the note has reached a terminal state.
func (n *ActiveNote) Consumed() bool { return n.state != statePending }

// Counters is the running session tally, mutated only by the judgment
// engine and the per-tick window advance.
type Counters struct {
	Grades       [game.NumGrades]int
	MinesHit     int
	MinesAvoided int
	HoldsHeld    int
	HoldsLetGo   int
	EmptyPresses int
	MaxCombo     int
}

type activeHold struct {
	note    *ActiveNote
	life    float64
	letGo   bool
	pressed bool
}

// ResultKind says what a key press amounted to.
type ResultKind uint8

const (
	// ResultEmpty is a press with no candidate in any window. Not a
	// miss; it touches no note and no grade counter.
	ResultEmpty ResultKind = iota
	ResultHit
	ResultMine
)

// Result reports the outcome of one judged press.
type Result struct {
	Kind  ResultKind
	Grade game.Grade
	Error time.Duration
	Note  *ActiveNote
}

// Session is the gameplay state for one chart. Not safe for concurrent
// use; update and render share one logical step, with Snapshot as the
// read boundary.
type Session struct {
	chart *game.Chart
	tempo *timing.Data
	cfg   Config

	active []*ActiveNote
	spawn  int // next chart note to enter the window

	holds   []*activeHold // indexed by lane
	effects *effects.Scheduler

	counters  Counters
	combo     int
	missCombo int
	life      float64
	failing   bool

	now  time.Duration
	beat float64
}

// New builds a session for a compiled chart. The chart and tempo map
// are immutable; all mutable state lives here and is discarded as a
// unit when the session ends.
func New(chart *game.Chart, tempo *timing.Data, cfg Config) (*Session, error) {
	if len(cfg.Judgements) == 0 {
		return nil, ErrNoJudgements
	}
	widest := time.Duration(0)
	for i, j := range cfg.Judgements {
		if j.Window <= widest {
			return nil, fmt.Errorf("judgement %d (%v): %w", i, j.Name, ErrUnsortedWindows)
		}
		widest = j.Window
	}
	if cfg.MissAfter <= widest {
		return nil, ErrMissInsideWindow
	}
	return &Session{
		chart:   chart,
		tempo:   tempo,
		cfg:     cfg,
		holds:   make([]*activeHold, chart.Difficulty.NKeys),
		effects: effects.NewScheduler(int(chart.Difficulty.NKeys), cfg.Explosion, cfg.Text, cfg.TextFade),
		life:    0.5,
	}, nil
}

// Tick advances the session to the given song time: spawns notes
// crossing the forward horizon, misses pending notes past the miss
// horizon, settles avoided mines, drains or completes holds, and
// evicts notes behind the back edge. pressed is the held state of each
// lane this frame; it may be nil when no lane is down.
func (s *Session) Tick(now time.Duration, pressed []bool) {
	dt := now - s.now
	if dt < 0 {
		dt = 0
	}
	s.now = now
	s.beat = s.tempo.BeatForTime(now.Seconds())

	s.spawnNotes()
	s.applyAutoMisses(now)
	s.updateHolds(now, pressed, dt)
	s.evictNotes()
}

func (s *Session) spawnNotes() {
	horizon := s.beat + s.cfg.DrawBeatsForward
	for s.spawn < len(s.chart.Notes) && s.chart.Notes[s.spawn].Beat <= horizon {
		note := s.chart.Notes[s.spawn]
		an := &ActiveNote{
			Note:       note,
			Index:      s.spawn,
			TargetTime: s.tempo.Duration(note.Beat),
		}
		if note.Kind == game.HoldStart || note.Kind == game.RollStart {
			an.EndTime = s.tempo.Duration(note.EndBeat)
		}
		s.active = append(s.active, an)
		s.spawn++
	}
}

// applyAutoMisses is the scheduled Pending to AutoMiss transition. It
// runs every tick, not only on input, so an untouched note misses the
// moment it ages past the horizon.
func (s *Session) applyAutoMisses(now time.Duration) {
	for _, an := range s.active {
		if !an.Pending() {
			continue
		}
		late := now - an.TargetTime
		switch {
		case an.Kind.Judgable() && late > s.cfg.MissAfter:
			s.missNote(an, late)
		case an.Kind == game.Mine && late > s.cfg.MineWindow:
			an.state = stateMineAvoided
			s.counters.MinesAvoided++
		}
	}
}

func (s *Session) missNote(an *ActiveNote, late time.Duration) {
	an.state = stateAutoMissed
	an.Grade = game.Miss
	an.Error = late
	s.counters.Grades[game.Miss]++
	s.breakCombo()
	s.applyLife(lifeMiss)
	s.effects.Trigger(an.Lane, game.Miss, s.now)
	if an.Kind == game.HoldStart || an.Kind == game.RollStart {
		// A missed head can never be held
		s.counters.HoldsLetGo++
	}
}

// evictNotes removes consumed notes that have scrolled past the back
// edge. Hold heads stay while their tail is still on screen. Window
// size stays proportional to local note density, not chart length.
func (s *Session) evictNotes() {
	back := s.beat - s.cfg.DrawBeatsBack
	i := 0
	for ; i < len(s.active); i++ {
		an := s.active[i]
		end := an.Beat
		if an.EndBeat > end {
			end = an.EndBeat
		}
		if end >= back {
			break
		}
		if an.Pending() {
			if an.Kind.Judgable() {
				// Behind the back edge without a judgment; finalize
				s.missNote(an, s.now-an.TargetTime)
			} else if an.Kind == game.Mine {
				an.state = stateMineAvoided
				s.counters.MinesAvoided++
			}
		}
	}
	if i > 0 {
		s.active = append(s.active[:0], s.active[i:]...)
	}
}

// Judge consumes one key press. The timing error is computed from the
// press's own timestamp, so judgment accuracy is bounded by input
// sampling, not render cadence.
func (s *Session) Judge(in game.Input) Result {
	var judgable, mine *ActiveNote
	judgableDist := time.Duration(1<<63 - 1)
	mineDist := time.Duration(1<<63 - 1)

	for _, an := range s.active {
		if an.Lane != in.Lane || !an.Pending() {
			continue
		}
		d := in.Time - an.TargetTime
		if d < 0 {
			d = -d
		}
		// Ties on identical target times resolve to the earlier chart
		// index because the scan is in chart order and only a strictly
		// smaller distance replaces the candidate.
		if an.Kind.Judgable() {
			if d < judgableDist {
				judgable, judgableDist = an, d
			}
		} else if an.Kind == game.Mine {
			if d < mineDist {
				mine, mineDist = an, d
			}
		}
	}

	if mine != nil && mineDist <= s.cfg.MineWindow && (judgable == nil || mineDist < judgableDist) {
		return s.hitMine(mine, in)
	}

	widest := s.cfg.Judgements[len(s.cfg.Judgements)-1].Window
	if judgable == nil || judgableDist > widest {
		// Empty press: no note consumed, no grade counted
		s.counters.EmptyPresses++
		s.refreshRoll(in.Lane)
		return Result{Kind: ResultEmpty}
	}

	grade := s.gradeFor(judgableDist)
	judgable.state = stateJudged
	judgable.Grade = grade
	judgable.Error = in.Time - judgable.TargetTime
	judgable.HitTime = in.Time

	s.counters.Grades[grade]++
	if grade.BreaksCombo() {
		s.breakCombo()
	} else {
		s.combo++
		s.missCombo = 0
		if s.combo > s.counters.MaxCombo {
			s.counters.MaxCombo = s.combo
		}
	}
	s.applyLife(lifeFor(grade))
	s.effects.Trigger(in.Lane, grade, in.Time)

	if judgable.Kind == game.HoldStart || judgable.Kind == game.RollStart {
		s.holds[in.Lane] = &activeHold{note: judgable, life: 1, pressed: true}
	}
	s.refreshRoll(in.Lane)

	return Result{Kind: ResultHit, Grade: grade, Error: judgable.Error, Note: judgable}
}

func (s *Session) hitMine(mine *ActiveNote, in game.Input) Result {
	mine.state = stateMineHit
	mine.HitTime = in.Time
	s.counters.MinesHit++
	s.breakCombo()
	s.applyLife(lifeHitMine)
	return Result{Kind: ResultMine, Error: in.Time - mine.TargetTime, Note: mine}
}

// Release ends a press in a lane. Rolls ignore releases; a released
// hold starts draining and may be recovered within the grace window.
func (s *Session) Release(in game.Input) {
	hold := s.holds[in.Lane]
	if hold == nil {
		return
	}
	hold.pressed = false
}

// refreshRoll re-arms a lane's roll on any step in that lane.
func (s *Session) refreshRoll(lane uint8) {
	hold := s.holds[lane]
	if hold == nil || hold.letGo || hold.note.Kind != game.RollStart {
		return
	}
	hold.life = 1
}

func (s *Session) updateHolds(now time.Duration, pressed []bool, dt time.Duration) {
	for lane := range s.holds {
		hold := s.holds[lane]
		if hold == nil {
			continue
		}
		if pressed != nil && lane < len(pressed) {
			hold.pressed = pressed[lane]
		}

		if !hold.letGo {
			grace := s.cfg.HoldGrace
			if hold.note.Kind == game.RollStart {
				grace = s.cfg.RollGrace
			}
			switch {
			case hold.note.Kind == game.HoldStart && hold.pressed:
				hold.life = 1
			case grace > 0:
				hold.life -= float64(dt) / float64(grace)
			default:
				hold.life = 0
			}
			if hold.life <= 0 {
				hold.life = 0
				hold.letGo = true
				s.counters.HoldsLetGo++
				s.breakCombo()
				s.applyLife(lifeLetGo)
			}
		}

		if now >= hold.note.EndTime {
			if !hold.letGo && hold.life > 0 {
				s.counters.HoldsHeld++
				s.applyLife(lifeHeld)
				// Flash the head's own judgment again; completing the
				// hold is not a new grade
				s.effects.Trigger(uint8(lane), hold.note.Grade, now)
			}
			s.holds[lane] = nil
		} else if hold.letGo {
			s.holds[lane] = nil
		}
	}
}

func (s *Session) gradeFor(abs time.Duration) game.Grade {
	for _, j := range s.cfg.Judgements {
		if abs <= j.Window {
			return j.Grade
		}
	}
	return game.Miss
}

func (s *Session) breakCombo() {
	s.combo = 0
	s.missCombo++
}

// Counters returns a copy of the running tally.
func (s *Session) Counters() Counters { return s.counters }

// Combo returns the current and miss combo.
func (s *Session) Combo() (int, int) { return s.combo, s.missCombo }

// Life returns the life meter in [0, 1] and whether the player failed.
func (s *Session) Life() (float64, bool) { return s.life, s.failing }

// Beat returns the musical position at the last tick.
func (s *Session) Beat() float64 { return s.beat }

// Finished reports whether every note has been spawned and resolved.
func (s *Session) Finished() bool {
	if s.spawn < len(s.chart.Notes) {
		return false
	}
	for _, an := range s.active {
		if an.Pending() {
			return false
		}
	}
	return true
}
