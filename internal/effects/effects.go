// Package effects keeps the timed per-lane judgment visuals: the hit
// explosion at the receptor and the fading judgment text. Entries are
// derived entirely from the song clock; there is no independent timer.
package effects

import (
	"time"

	"git.lost.host/meutraa/steps/internal/game"
)

// Entry is one lane's live effect. A new judgment in the lane replaces
// the previous entry outright; one visible effect per lane.
type Entry struct {
	Grade         game.Grade
	CreatedAt     time.Duration
	ExplosionEnd  time.Duration
	TextFadeStart time.Duration
}

// Scheduler is a fixed-size table indexed by lane. Lane count is small
// and static, so "one effect per lane" holds by construction.
type Scheduler struct {
	lanes []Entry
	live  []bool

	explosion time.Duration
	text      time.Duration
	fade      time.Duration // tail of text during which alpha ramps out
}

func NewScheduler(nLanes int, explosion, text, fade time.Duration) *Scheduler {
	return &Scheduler{
		lanes:     make([]Entry, nLanes),
		live:      make([]bool, nLanes),
		explosion: explosion,
		text:      text,
		fade:      fade,
	}
}

// Trigger records a judgment for a lane, replacing whatever effect was
// still playing there.
func (s *Scheduler) Trigger(lane uint8, grade game.Grade, now time.Duration) {
	s.lanes[lane] = Entry{
		Grade:         grade,
		CreatedAt:     now,
		ExplosionEnd:  now + s.explosion,
		TextFadeStart: now + s.text - s.fade,
	}
	s.live[lane] = true
}

// Entry returns the lane's effect if any phase of it is still showing.
func (s *Scheduler) Entry(lane uint8, now time.Duration) (Entry, bool) {
	if !s.Alive(lane, now) {
		return Entry{}, false
	}
	return s.lanes[lane], true
}

// Alive reports whether any phase of the lane's effect is still showing.
func (s *Scheduler) Alive(lane uint8, now time.Duration) bool {
	if !s.live[lane] {
		return false
	}
	e := s.lanes[lane]
	end := e.ExplosionEnd
	if textEnd := e.TextFadeStart + s.fade; textEnd > end {
		end = textEnd
	}
	if now >= end {
		s.live[lane] = false
		return false
	}
	return true
}

// ExplosionAlive reports whether the receptor explosion is still showing.
func (s *Scheduler) ExplosionAlive(lane uint8, now time.Duration) bool {
	return s.live[lane] && now >= s.lanes[lane].CreatedAt && now < s.lanes[lane].ExplosionEnd
}

// TextAlpha is the opacity of the lane's judgment text: 1 until the
// fade starts, then a linear ramp to 0, saturating at both ends.
func (s *Scheduler) TextAlpha(lane uint8, now time.Duration) float64 {
	if !s.live[lane] {
		return 0
	}
	e := s.lanes[lane]
	if now < e.TextFadeStart {
		return 1
	}
	if s.fade <= 0 {
		return 0
	}
	alpha := 1 - float64(now-e.TextFadeStart)/float64(s.fade)
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}
