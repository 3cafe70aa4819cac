// Package possession partitions a game's play-by-play into ball
// possessions with team attribution, outcome and points scored.
package possession

import "github.com/fortuna/courtside/internal/pbp"

// Outcome classifies how a possession ended
type Outcome string

const (
	OutcomeMadeShot                Outcome = "made_shot"
	OutcomeTurnover                Outcome = "turnover"
	OutcomeDefensiveRebound        Outcome = "defensive_rebound"
	OutcomeOffensiveRebound        Outcome = "offensive_rebound"
	OutcomeMadeFreeThrow           Outcome = "made_free_throw"
	OutcomeDefensiveReboundAfterFT Outcome = "defensive_rebound_after_ft"
	OutcomeOffensiveReboundAfterFT Outcome = "offensive_rebound_after_ft"
	OutcomeMissedFTNoRebound       Outcome = "missed_free_throw_no_rebound"
	OutcomeGameEnd                 Outcome = "game_end"
)

// Possession is one span of ball control by a single team
type Possession struct {
	PossessionNumber    int     `json:"possession_number"`
	TeamID              int     `json:"team_id"`
	StartPeriod         int     `json:"start_period"`
	StartTimeRemaining  string  `json:"start_time_remaining"`
	StartSecondsElapsed int     `json:"start_seconds_elapsed"`
	EndPeriod           *int    `json:"end_period,omitempty"`
	EndTimeRemaining    *string `json:"end_time_remaining,omitempty"`
	EndSecondsElapsed   *int    `json:"end_seconds_elapsed,omitempty"`
	Outcome             Outcome `json:"possession_outcome"`
	PointsScored        int     `json:"points_scored"`
	EventIDs            []int   `json:"event_ids"`
}

// Audit counts the fallbacks taken while tracking a game. None of them
// are errors; callers surface them for data-quality review.
type Audit struct {
	ReboundWithoutMiss int `json:"rebound_without_miss"`
	MissedFTNoRebound  int `json:"missed_ft_no_rebound"`
	UnparsedFreeThrow  int `json:"unparsed_free_throw"`
	EventsMissingTeam  int `json:"events_missing_team"`
}

// Result is the output of tracking one game
type Result struct {
	Possessions []Possession `json:"possessions"`
	Audit       Audit        `json:"audit"`
}

// Points derives the points scored by a set of events. Made shots count
// three for 3PT and two otherwise; free throws count one unless the
// description mentions a miss.
func Points(events []pbp.PlayEvent) int {
	points := 0
	for _, ev := range events {
		switch ev.EventType {
		case pbp.EventMadeShot:
			if ev.IsThree() {
				points += 3
			} else {
				points += 2
			}
		case pbp.EventFreeThrow:
			if !ev.IsMiss() {
				points++
			}
		}
	}
	return points
}
