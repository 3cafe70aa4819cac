package lineup

import "github.com/fortuna/courtside/internal/pbp"

// InferStarters derives each team's starting five from the order players
// first appear. A player whose first action is being subbed in did not
// start; any other first appearance, including being subbed out, means
// the player was on court at tip-off.
func InferStarters(events []pbp.PlayEvent, homeTeamID, awayTeamID int) Starters {
	seen := make(map[int]bool)
	found := map[int][]int{homeTeamID: nil, awayTeamID: nil}

	for _, ev := range events {
		if ev.PlayerID == 0 || ev.PlayerID == ev.TeamID || seen[ev.PlayerID] {
			continue
		}
		starters, ok := found[ev.TeamID]
		if !ok {
			continue
		}
		seen[ev.PlayerID] = true

		if ev.EventType == pbp.EventSubstitution && direction(ev) == subTypeIn {
			continue
		}
		if len(starters) < LineupSize {
			found[ev.TeamID] = append(starters, ev.PlayerID)
		}
	}

	return Starters{
		Home: sortedCopy(found[homeTeamID]),
		Away: sortedCopy(found[awayTeamID]),
	}
}
