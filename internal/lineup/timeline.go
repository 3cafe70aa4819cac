package lineup

import (
	"fmt"

	"github.com/fortuna/courtside/internal/pbp"
)

// buildTimeline applies substitutions to the starting fives in order.
// Each substitution produces one new state for its team.
func buildTimeline(gameID string, home, away int, starters Starters, subs []SubstitutionEvent) *Timeline {
	tl := &Timeline{Substitutions: subs}

	current := map[int]map[int]bool{
		home: toSet(starters.Home),
		away: toSet(starters.Away),
	}

	startClock := pbp.DisplayClock(1, 0)
	for _, team := range []int{home, away} {
		tl.States = append(tl.States, LineupState{
			GameID:  gameID,
			Period:  1,
			Clock:   startClock,
			TeamID:  team,
			Players: fromSet(current[team]),
		})
	}

	for _, sub := range subs {
		onCourt, ok := current[sub.TeamID]
		if !ok {
			tl.Violations = append(tl.Violations, Violation{
				TeamID:         sub.TeamID,
				Period:         sub.Period,
				SecondsElapsed: sub.SecondsElapsed,
				Kind:           ViolationUnknownTeam,
				Detail:         fmt.Sprintf("substitution %d for team not in game", sub.ActionNumber),
			})
			continue
		}

		if !onCourt[sub.PlayerOutID] {
			tl.Violations = append(tl.Violations, subViolation(sub, ViolationPlayerNotOnCourt,
				fmt.Sprintf("player %d subbed out while off court", sub.PlayerOutID)))
		}
		if onCourt[sub.PlayerInID] {
			tl.Violations = append(tl.Violations, subViolation(sub, ViolationPlayerAlreadyOnCourt,
				fmt.Sprintf("player %d subbed in while on court", sub.PlayerInID)))
		}

		next := make(map[int]bool, len(onCourt))
		for id := range onCourt {
			next[id] = true
		}
		delete(next, sub.PlayerOutID)
		if sub.PlayerInID != 0 {
			next[sub.PlayerInID] = true
		}
		current[sub.TeamID] = next

		tl.States = append(tl.States, LineupState{
			GameID:             gameID,
			Period:             sub.Period,
			Clock:              sub.Clock,
			SecondsElapsed:     sub.SecondsElapsed,
			TeamID:             sub.TeamID,
			Players:            fromSet(next),
			SubstitutionAction: sub.ActionNumber,
		})
	}

	return tl
}

// GetPlayersOnCourt returns both teams' lineups at the given period and
// clock. A substitution at exactly that instant is already applied.
func (t *Tracker) GetPlayersOnCourt(period int, clock string) (OnCourt, error) {
	elapsed, err := pbp.ElapsedSeconds(period, clock)
	if err != nil {
		return OnCourt{}, fmt.Errorf("players on court: %w", err)
	}
	return t.PlayersOnCourtAt(period, elapsed), nil
}

// PlayersOnCourtAt is GetPlayersOnCourt with the instant already in
// seconds elapsed.
func (t *Tracker) PlayersOnCourtAt(period, elapsed int) OnCourt {
	return OnCourtAt(t.Build().States, t.home, t.away, period, elapsed)
}

// OnCourtAt answers the on-court lookup over an already built timeline,
// such as one loaded back from storage.
func OnCourtAt(states []LineupState, homeTeamID, awayTeamID, period, elapsed int) OnCourt {
	return OnCourt{
		HomePlayers: latestFor(states, homeTeamID, period, elapsed),
		AwayPlayers: latestFor(states, awayTeamID, period, elapsed),
	}
}

func latestFor(states []LineupState, team, period, elapsed int) []int {
	for i := len(states) - 1; i >= 0; i-- {
		s := states[i]
		if s.TeamID != team {
			continue
		}
		if s.Period < period || (s.Period == period && s.SecondsElapsed <= elapsed) {
			return sortedCopy(s.Players)
		}
	}
	return nil
}

func toSet(players []int) map[int]bool {
	set := make(map[int]bool, len(players))
	for _, id := range players {
		if id != 0 {
			set[id] = true
		}
	}
	return set
}

func fromSet(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return sortedCopy(out)
}
