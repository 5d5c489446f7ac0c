package session

import (
	"math"
	"time"

	"git.lost.host/meutraa/steps/internal/game"
)

// noteFrames is the sprite sheet frame count for the receptor-bound
// note animation; the phase advances with the global beat.
const noteFrames = 8

// NoteDraw is one visible note, projected to screen space.
type NoteDraw struct {
	Lane     uint8
	Kind     game.NoteKind
	Denom    int
	Y        float64
	TailY    float64 // hold and roll heads only
	Frame    int
	HoldLife float64 // 1 while healthy, drains toward 0 when dropped
}

// EffectDraw is one lane's live judgment effect.
type EffectDraw struct {
	Lane           uint8
	Grade          game.Grade
	ExplosionAlive bool
	TextAlpha      float64
}

// Snapshot is the immutable per-frame view handed to the renderer.
// Update and render may run on different goroutines as long as the
// renderer only ever sees these copies.
type Snapshot struct {
	Time      time.Duration
	Beat      float64
	Notes     []NoteDraw
	Effects   []EffectDraw
	Counters  Counters
	Combo     int
	MissCombo int
	Life      float64
	Failing   bool
}

// Snapshot projects the active window to draw requests at the session's
// current time.
func (s *Session) Snapshot() Snapshot {
	frame := int(math.Mod(s.beat, 1) * noteFrames)
	if frame < 0 {
		frame += noteFrames
	}
	snap := Snapshot{
		Time:      s.now,
		Beat:      s.beat,
		Counters:  s.counters,
		Combo:     s.combo,
		MissCombo: s.missCombo,
		Life:      s.life,
		Failing:   s.failing,
	}

	for _, an := range s.active {
		if !s.drawable(an) {
			continue
		}
		draw := NoteDraw{
			Lane:     an.Lane,
			Kind:     an.Kind,
			Denom:    an.Denom,
			Y:        s.cfg.Projector.Y(an.TargetTime, s.now),
			Frame:    frame % noteFrames,
			HoldLife: 1,
		}
		if an.Kind == game.HoldStart || an.Kind == game.RollStart {
			draw.TailY = s.cfg.Projector.Y(an.EndTime, s.now)
			if hold := s.holds[an.Lane]; hold != nil && hold.note == an {
				draw.HoldLife = hold.life
			}
		}
		snap.Notes = append(snap.Notes, draw)
	}

	for lane := uint8(0); lane < s.chart.Difficulty.NKeys; lane++ {
		entry, ok := s.effects.Entry(lane, s.now)
		if !ok {
			continue
		}
		snap.Effects = append(snap.Effects, EffectDraw{
			Lane:           lane,
			Grade:          entry.Grade,
			ExplosionAlive: s.effects.ExplosionAlive(lane, s.now),
			TextAlpha:      s.effects.TextAlpha(lane, s.now),
		})
	}
	return snap
}

// drawable: consumed taps vanish, a judged hold body stays until its
// tail passes, missed notes keep falling until evicted, hit mines
// vanish, avoided mines scroll out.
func (s *Session) drawable(an *ActiveNote) bool {
	switch an.state {
	case statePending, stateAutoMissed, stateMineAvoided:
		return true
	case stateMineHit:
		return false
	case stateJudged:
		if an.Kind == game.HoldStart || an.Kind == game.RollStart {
			return s.now < an.EndTime
		}
		return false
	}
	return false
}
