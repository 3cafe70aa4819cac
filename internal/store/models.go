package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match no row
var ErrNotFound = errors.New("not found")

// Game is one row of the games table
type Game struct {
	GameID          string       `json:"game_id" db:"game_id"`
	GameTime        sql.NullTime `json:"-" db:"game_time"`
	Status          string       `json:"status" db:"status"`
	HomeTeamID      int          `json:"home_team_id" db:"home_team_id"`
	AwayTeamID      int          `json:"away_team_id" db:"away_team_id"`
	HomeTricode     string       `json:"home_tricode" db:"home_tricode"`
	AwayTricode     string       `json:"away_tricode" db:"away_tricode"`
	HomeScore       int          `json:"home_score" db:"home_score"`
	AwayScore       int          `json:"away_score" db:"away_score"`
	HomeStarters    []int        `json:"home_starters" db:"home_starters"`
	AwayStarters    []int        `json:"away_starters" db:"away_starters"`
	PossessionCount int          `json:"possession_count" db:"possession_count"`
	ProcessedAt     sql.NullTime `json:"-" db:"processed_at"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

// Int64s converts ids for pq.Array, which has no []int support
func Int64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

// Ints is the inverse of Int64s
func Ints(ids []int64) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// NullableInt maps 0 to SQL NULL
func NullableInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
