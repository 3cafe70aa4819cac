package possession

import "github.com/fortuna/courtside/internal/pbp"

// changes evaluates whether events[i] ends the possession held by
// currentTeam, and how.
func (s *scan) changes(i int, currentTeam int) (bool, Outcome) {
	ev := s.events[i]

	switch ev.EventType {
	case pbp.EventMadeShot:
		return true, OutcomeMadeShot
	case pbp.EventTurnover:
		return true, OutcomeTurnover
	case pbp.EventRebound:
		if s.consumed[i] {
			return false, ""
		}
		return s.reboundChanges(i, currentTeam)
	case pbp.EventFreeThrow:
		return s.finalFreeThrowChanges(i, currentTeam)
	default:
		return false, ""
	}
}

// reboundChanges looks back for the miss this rebound recovers. A
// rebound by the team that did not miss is defensive. Without a miss in
// the window the rebound is treated as offensive.
func (s *scan) reboundChanges(i int, currentTeam int) (bool, Outcome) {
	rebounder := teamOr(s.events[i], currentTeam)

	stop := i - s.cfg.ReboundLookback
	if stop < 0 {
		stop = 0
	}
	for j := i - 1; j >= stop; j-- {
		prior := s.events[j]
		if !isMiss(prior) {
			continue
		}
		if teamOr(prior, currentTeam) != rebounder {
			return true, OutcomeDefensiveRebound
		}
		return false, OutcomeOffensiveRebound
	}

	s.audit.ReboundWithoutMiss++
	return false, OutcomeOffensiveRebound
}

// finalFreeThrowChanges handles the last free throw of a trip to the line
func (s *scan) finalFreeThrowChanges(i int, currentTeam int) (bool, Outcome) {
	ev := s.events[i]

	n, m, ok := pbp.FreeThrowCounter(ev.Description)
	if !ok {
		s.audit.UnparsedFreeThrow++
		return false, ""
	}
	if n != m {
		return false, ""
	}

	if !ev.IsMiss() {
		return true, OutcomeMadeFreeThrow
	}

	end := i + s.cfg.FreeThrowLookahead
	if end >= len(s.events) {
		end = len(s.events) - 1
	}
	for j := i + 1; j <= end; j++ {
		next := s.events[j]
		if next.EventType != pbp.EventRebound {
			continue
		}
		s.consumed[j] = true
		if teamOr(next, currentTeam) != currentTeam {
			return true, OutcomeDefensiveReboundAfterFT
		}
		return s.cfg.OffensiveReboundAfterFTChanges, OutcomeOffensiveReboundAfterFT
	}

	s.audit.MissedFTNoRebound++
	return true, OutcomeMissedFTNoRebound
}

func isMiss(ev pbp.PlayEvent) bool {
	switch ev.EventType {
	case pbp.EventMissedShot:
		return true
	case pbp.EventFreeThrow:
		return ev.IsMiss()
	}
	return false
}

func teamOr(ev pbp.PlayEvent, fallback int) int {
	if ev.HasTeam() {
		return ev.TeamID
	}
	return fallback
}
