package lineup

import (
	"fmt"
	"sort"

	"github.com/fortuna/courtside/internal/pbp"
)

// ViolationKind names a lineup data-quality problem
type ViolationKind string

const (
	ViolationLineupSize           ViolationKind = "lineup_size"
	ViolationPlayerNotOnCourt     ViolationKind = "player_not_on_court"
	ViolationPlayerAlreadyOnCourt ViolationKind = "player_already_on_court"
	ViolationUnpairedSubstitution ViolationKind = "unpaired_substitution"
	ViolationUnknownTeam          ViolationKind = "unknown_team"
)

// Violation is a point in the timeline where the derived lineup cannot be
// right. The timeline is still emitted.
type Violation struct {
	TeamID         int           `json:"team_id"`
	Period         int           `json:"period"`
	SecondsElapsed int           `json:"seconds_elapsed"`
	Kind           ViolationKind `json:"kind"`
	Detail         string        `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("team %d P%d+%ds %s: %s", v.TeamID, v.Period, v.SecondsElapsed, v.Kind, v.Detail)
}

// Validate reports every state that does not hold exactly five distinct
// players.
func Validate(states []LineupState) []Violation {
	var violations []Violation
	for _, s := range states {
		distinct := make(map[int]bool, len(s.Players))
		for _, id := range s.Players {
			distinct[id] = true
		}
		if len(distinct) != LineupSize || len(s.Players) != LineupSize {
			violations = append(violations, Violation{
				TeamID:         s.TeamID,
				Period:         s.Period,
				SecondsElapsed: s.SecondsElapsed,
				Kind:           ViolationLineupSize,
				Detail:         fmt.Sprintf("%d players on court", len(distinct)),
			})
		}
	}
	return violations
}

func violationAt(ev pbp.PlayEvent, kind ViolationKind, detail string) Violation {
	return Violation{
		TeamID:         ev.TeamID,
		Period:         ev.Period,
		SecondsElapsed: ev.TimeElapsedSeconds,
		Kind:           kind,
		Detail:         fmt.Sprintf("action %d: %s", ev.EventID, detail),
	}
}

func subViolation(sub SubstitutionEvent, kind ViolationKind, detail string) Violation {
	return Violation{
		TeamID:         sub.TeamID,
		Period:         sub.Period,
		SecondsElapsed: sub.SecondsElapsed,
		Kind:           kind,
		Detail:         detail,
	}
}

func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Period != vs[j].Period {
			return vs[i].Period < vs[j].Period
		}
		return vs[i].SecondsElapsed < vs[j].SecondsElapsed
	})
}
