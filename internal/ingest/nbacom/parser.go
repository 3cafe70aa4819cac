package nbacom

import (
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/courtside/internal/pbp"
)

// Team is one side of a game as the page describes it
type Team struct {
	TeamID   int
	Tricode  string
	Name     string
	Score    int
	Starters []int
}

// Game is the parsed content of one play-by-play page
type Game struct {
	GameID   string
	GameTime time.Time
	Status   string
	Home     Team
	Away     Team
	Events   []pbp.PlayEvent

	// Skipped counts actions that could not be turned into events
	Skipped int
}

// actionType values as they appear in the feed, lowercased
var actionTypes = map[string]pbp.EventType{
	"made shot":    pbp.EventMadeShot,
	"missed shot":  pbp.EventMissedShot,
	"turnover":     pbp.EventTurnover,
	"rebound":      pbp.EventRebound,
	"free throw":   pbp.EventFreeThrow,
	"substitution": pbp.EventSubstitution,
	"foul":         pbp.EventFoul,
	"timeout":      pbp.EventTimeout,
	"jump ball":    pbp.EventJumpBall,
	"violation":    pbp.EventViolation,
}

// ParseGame reads props.pageProps out of a decoded __NEXT_DATA__ payload
func ParseGame(payload map[string]interface{}) (*Game, error) {
	pageProps := extractMap(extractMap(payload, "props"), "pageProps")
	playByPlay, ok := pageProps["playByPlay"].(map[string]interface{})
	if !ok {
		return nil, ErrNoPayload
	}
	meta := extractMap(pageProps, "game")

	events, skipped := ParseActions(extractArray(playByPlay, "actions"))

	game := &Game{
		GameID:  fallbackString(extractString(meta, "gameId"), extractString(playByPlay, "gameId")),
		Status:  extractString(meta, "gameStatusText"),
		Home:    parseTeam(extractMap(meta, "homeTeam")),
		Away:    parseTeam(extractMap(meta, "awayTeam")),
		Events:  events,
		Skipped: skipped,
	}
	if ts := extractString(meta, "gameTimeUTC"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			game.GameTime = t
		}
	}
	return game, nil
}

func parseTeam(m map[string]interface{}) Team {
	team := Team{
		TeamID:  extractInt(m, "teamId"),
		Tricode: extractString(m, "teamTricode"),
		Name:    strings.TrimSpace(extractString(m, "teamCity") + " " + extractString(m, "teamName")),
		Score:   extractInt(m, "score"),
	}
	for _, p := range extractArray(m, "players") {
		player, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		if isStarter(player["starter"]) {
			team.Starters = append(team.Starters, extractInt(player, "personId"))
		}
	}
	return team
}

// ParseActions converts raw feed actions into events sorted by
// (period, order). Actions without an action number or period are skipped.
func ParseActions(actions []interface{}) ([]pbp.PlayEvent, int) {
	events := make([]pbp.PlayEvent, 0, len(actions))
	skipped := 0

	for _, a := range actions {
		action, ok := a.(map[string]interface{})
		if !ok {
			skipped++
			continue
		}
		ev, ok := parseAction(action)
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}

	pbp.Sort(events)
	return events, skipped
}

func parseAction(action map[string]interface{}) (pbp.PlayEvent, bool) {
	number := extractInt(action, "actionNumber")
	period := extractInt(action, "period")
	if number == 0 || period == 0 {
		return pbp.PlayEvent{}, false
	}

	order := extractInt(action, "orderNumber")
	if order == 0 {
		order = number
	}

	elapsed := 0
	if clock := extractString(action, "clock"); clock != "" {
		if secs, err := pbp.ElapsedSeconds(period, clock); err == nil {
			elapsed = secs
		}
	}

	description := extractString(action, "description")
	ev := pbp.PlayEvent{
		EventID:            number,
		EventOrder:         order,
		Period:             period,
		TimeRemaining:      pbp.DisplayClock(period, elapsed),
		TimeElapsedSeconds: elapsed,
		EventType:          eventType(extractString(action, "actionType"), extractString(action, "subType")),
		TeamID:             extractInt(action, "teamId"),
		PlayerID:           extractInt(action, "personId"),
		PlayerName:         fallbackString(extractString(action, "playerNameI"), extractString(action, "playerName")),
		Description:        description,
		SubType:            strings.ToLower(extractString(action, "subType")),
	}

	if ev.EventType == pbp.EventMadeShot || ev.EventType == pbp.EventMissedShot {
		if extractInt(action, "shotValue") == 3 || strings.Contains(strings.ToUpper(description), pbp.ShotTypeThree) {
			ev.ShotType = pbp.ShotTypeThree
		} else {
			ev.ShotType = "2PT"
		}
	}
	return ev, true
}

func eventType(actionType, subType string) pbp.EventType {
	t := strings.ToLower(strings.TrimSpace(actionType))
	if t == "period" {
		if strings.EqualFold(subType, "end") {
			return pbp.EventPeriodEnd
		}
		return pbp.EventPeriodStart
	}
	if et, ok := actionTypes[t]; ok {
		return et
	}
	return pbp.EventOther
}

func isStarter(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "1" || strings.EqualFold(val, "true")
	case float64:
		return val == 1
	}
	return false
}

// Helper functions

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case string:
			return val
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ""
}

func fallbackString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func extractInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		return parseInt(v)
	}
	return 0
}

func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

func parseInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	case int:
		return val
	default:
		return 0
	}
}
