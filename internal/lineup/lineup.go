// Package lineup reconstructs which five players each team had on the
// floor from the substitution actions in a game's play-by-play.
package lineup

import (
	"sort"

	"github.com/fortuna/courtside/internal/pbp"
)

// LineupSize is the number of players a team has on court
const LineupSize = 5

// SubstitutionEvent is one player swap for a team
type SubstitutionEvent struct {
	ActionNumber   int    `json:"action_number"`
	Period         int    `json:"period"`
	Clock          string `json:"clock"`
	SecondsElapsed int    `json:"seconds_elapsed"`
	TeamID         int    `json:"team_id"`
	PlayerOutID    int    `json:"player_out_id"`
	PlayerOutName  string `json:"player_out_name"`
	PlayerInID     int    `json:"player_in_id"`
	PlayerInName   string `json:"player_in_name"`
	Description    string `json:"description"`
}

// LineupState is a team's on-court roster from the instant it became valid
// until the team's next substitution.
type LineupState struct {
	GameID             string `json:"game_id"`
	Period             int    `json:"period"`
	Clock              string `json:"clock"`
	SecondsElapsed     int    `json:"seconds_elapsed"`
	TeamID             int    `json:"team_id"`
	Players            []int  `json:"players"`
	SubstitutionAction int    `json:"substitution_action,omitempty"`
}

// Starters holds each team's starting five
type Starters struct {
	Home []int `json:"home"`
	Away []int `json:"away"`
}

// OnCourt is the answer to "who was playing at this instant"
type OnCourt struct {
	HomePlayers []int `json:"home_players"`
	AwayPlayers []int `json:"away_players"`
}

// Timeline is the full lineup reconstruction for one game
type Timeline struct {
	Substitutions []SubstitutionEvent `json:"substitutions"`
	States        []LineupState       `json:"states"`
	Violations    []Violation         `json:"violations,omitempty"`
}

// Tracker builds the lineup timeline for a single game
type Tracker struct {
	gameID   string
	home     int
	away     int
	events   []pbp.PlayEvent
	starters Starters

	timeline *Timeline
}

// New creates a tracker for one game. Events must be ordered by
// (period, event order). Empty starters are inferred from the events.
func New(gameID string, homeTeamID, awayTeamID int, events []pbp.PlayEvent, starters Starters) *Tracker {
	inferred := InferStarters(events, homeTeamID, awayTeamID)
	if len(starters.Home) == 0 {
		starters.Home = inferred.Home
	}
	if len(starters.Away) == 0 {
		starters.Away = inferred.Away
	}

	return &Tracker{
		gameID:   gameID,
		home:     homeTeamID,
		away:     awayTeamID,
		events:   events,
		starters: starters,
	}
}

// Starters returns the starting fives the timeline is built from
func (t *Tracker) Starters() Starters {
	return t.starters
}

// ParseSubstitutionEvents returns the game's substitutions in order
func (t *Tracker) ParseSubstitutionEvents() []SubstitutionEvent {
	return t.Build().Substitutions
}

// BuildLineupTimeline returns every lineup state in game order
func (t *Tracker) BuildLineupTimeline() []LineupState {
	return t.Build().States
}

// Build reconstructs the timeline once and caches it
func (t *Tracker) Build() *Timeline {
	if t.timeline != nil {
		return t.timeline
	}

	subs, unpaired := pairSubstitutions(t.events)
	tl := buildTimeline(t.gameID, t.home, t.away, t.starters, subs)
	tl.Violations = append(unpaired, tl.Violations...)
	tl.Violations = append(tl.Violations, Validate(tl.States)...)
	sortViolations(tl.Violations)

	t.timeline = tl
	return tl
}

func sortedCopy(players []int) []int {
	out := append([]int(nil), players...)
	sort.Ints(out)
	return out
}
