package session

import "git.lost.host/meutraa/steps/internal/game"

// Life meter deltas, matching the Simply Love table.
const (
	lifeFantastic = 0.008
	lifeExcellent = 0.008
	lifeGreat     = 0.004
	lifeDecent    = 0.0
	lifeWayOff    = -0.050
	lifeMiss      = -0.100
	lifeHitMine   = -0.050
	lifeHeld      = 0.008
	lifeLetGo     = -0.080
)

func lifeFor(grade game.Grade) float64 {
	switch grade {
	case game.Fantastic:
		return lifeFantastic
	case game.Excellent:
		return lifeExcellent
	case game.Great:
		return lifeGreat
	case game.Decent:
		return lifeDecent
	case game.WayOff:
		return lifeWayOff
	case game.Miss:
		return lifeMiss
	}
	return 0
}

func (s *Session) applyLife(delta float64) {
	if s.failing {
		s.life = 0
		return
	}
	s.life += delta
	if s.life > 1 {
		s.life = 1
	}
	if s.life <= 0 {
		s.life = 0
		s.failing = true
	}
}
