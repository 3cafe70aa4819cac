package pbp

import (
	"sort"
	"strconv"
	"strings"
)

// EventType categorizes a play-by-play action
type EventType string

const (
	EventMadeShot     EventType = "made shot"
	EventMissedShot   EventType = "missed shot"
	EventTurnover     EventType = "turnover"
	EventRebound      EventType = "rebound"
	EventFreeThrow    EventType = "free throw"
	EventSubstitution EventType = "substitution"
	EventFoul         EventType = "foul"
	EventTimeout      EventType = "timeout"
	EventJumpBall     EventType = "jump ball"
	EventViolation    EventType = "violation"
	EventPeriodStart  EventType = "period start"
	EventPeriodEnd    EventType = "period end"
	EventOther        EventType = "other"
)

// ShotTypeThree marks a three point attempt
const ShotTypeThree = "3PT"

// PlayEvent is one normalized game action. Events for a game are ordered
// by (Period, EventOrder).
type PlayEvent struct {
	EventID            int       `json:"event_id"`
	EventOrder         int       `json:"event_order"`
	Period             int       `json:"period"`
	TimeRemaining      string    `json:"time_remaining"`
	TimeElapsedSeconds int       `json:"time_elapsed_seconds"`
	EventType          EventType `json:"event_type"`
	TeamID             int       `json:"team_id,omitempty"`
	PlayerID           int       `json:"player_id,omitempty"`
	PlayerName         string    `json:"player_name,omitempty"`
	Description        string    `json:"description"`
	ShotType           string    `json:"shot_type,omitempty"`
	SubType            string    `json:"sub_type,omitempty"`
}

// HasTeam reports whether the event is attributed to a team
func (e PlayEvent) HasTeam() bool {
	return e.TeamID != 0
}

// IsMiss reports whether the description mentions a miss
func (e PlayEvent) IsMiss() bool {
	return strings.Contains(strings.ToLower(e.Description), "miss")
}

// IsThree reports whether the event is a three point shot
func (e PlayEvent) IsThree() bool {
	return e.ShotType == ShotTypeThree
}

// Sort orders events by (Period, EventOrder), breaking ties on EventID so
// the result is deterministic.
func Sort(events []PlayEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.EventOrder != b.EventOrder {
			return a.EventOrder < b.EventOrder
		}
		return a.EventID < b.EventID
	})
}

// FreeThrowCounter extracts the "N of M" counter from a free throw
// description. ok is false when no well-formed counter is present.
func FreeThrowCounter(description string) (n, m int, ok bool) {
	tokens := strings.Fields(description)
	for i := 1; i+1 < len(tokens); i++ {
		if !strings.EqualFold(tokens[i], "of") {
			continue
		}
		left, errLeft := strconv.Atoi(strings.Trim(tokens[i-1], "(),."))
		right, errRight := strconv.Atoi(strings.Trim(tokens[i+1], "(),."))
		if errLeft != nil || errRight != nil {
			continue
		}
		return left, right, true
	}
	return 0, 0, false
}
