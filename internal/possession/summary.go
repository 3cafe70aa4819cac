package possession

import "sort"

// TeamSummary aggregates one team's possessions
type TeamSummary struct {
	TeamID              int             `json:"team_id"`
	Possessions         int             `json:"possessions"`
	Points              int             `json:"points"`
	PointsPerPossession float64         `json:"points_per_possession"`
	Outcomes            map[Outcome]int `json:"outcomes"`
}

// Summary is a read-only reduction over a game's possessions
type Summary struct {
	TotalPossessions int           `json:"total_possessions"`
	Teams            []TeamSummary `json:"teams"`
}

// Summarize reduces possessions to per-team counts and efficiency.
// Teams are ordered by team id.
func Summarize(possessions []Possession) Summary {
	byTeam := make(map[int]*TeamSummary)
	for _, p := range possessions {
		ts, ok := byTeam[p.TeamID]
		if !ok {
			ts = &TeamSummary{TeamID: p.TeamID, Outcomes: make(map[Outcome]int)}
			byTeam[p.TeamID] = ts
		}
		ts.Possessions++
		ts.Points += p.PointsScored
		ts.Outcomes[p.Outcome]++
	}

	summary := Summary{TotalPossessions: len(possessions), Teams: make([]TeamSummary, 0, len(byTeam))}
	for _, ts := range byTeam {
		if ts.Possessions > 0 {
			ts.PointsPerPossession = float64(ts.Points) / float64(ts.Possessions)
		}
		summary.Teams = append(summary.Teams, *ts)
	}
	sort.Slice(summary.Teams, func(i, j int) bool {
		return summary.Teams[i].TeamID < summary.Teams[j].TeamID
	})

	return summary
}

// Team returns the summary for teamID, if present
func (s Summary) Team(teamID int) (TeamSummary, bool) {
	for _, ts := range s.Teams {
		if ts.TeamID == teamID {
			return ts, true
		}
	}
	return TeamSummary{}, false
}
