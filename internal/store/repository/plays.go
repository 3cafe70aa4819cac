package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/courtside/internal/pbp"
	"github.com/fortuna/courtside/internal/store"
)

var playColumns = []string{
	"game_id", "event_id", "event_order", "period", "time_remaining",
	"time_elapsed_seconds", "event_type", "team_id", "player_id",
	"player_name", "description", "shot_type", "sub_type",
}

// PlayRepository stores the normalized play-by-play feed
type PlayRepository struct {
	db *store.Database
}

// NewPlayRepository creates a new play repository
func NewPlayRepository(db *store.Database) *PlayRepository {
	return &PlayRepository{db: db}
}

// ReplaceForGame swaps the stored events for a game. Derived possessions
// referencing the old events are removed by cascade.
func (r *PlayRepository) ReplaceForGame(ctx context.Context, tx *sql.Tx, gameID string, events []pbp.PlayEvent) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM play_events WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("deleting play events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("play_events", playColumns...))
	if err != nil {
		return fmt.Errorf("preparing play copy: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		_, err := stmt.ExecContext(ctx,
			gameID, ev.EventID, ev.EventOrder, ev.Period, ev.TimeRemaining,
			ev.TimeElapsedSeconds, string(ev.EventType), store.NullableInt(ev.TeamID), store.NullableInt(ev.PlayerID),
			ev.PlayerName, ev.Description, ev.ShotType, ev.SubType,
		)
		if err != nil {
			return fmt.Errorf("copying event %d: %w", ev.EventID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing play copy: %w", err)
	}
	return nil
}

// ListForGame returns a game's events in feed order
func (r *PlayRepository) ListForGame(ctx context.Context, gameID string) ([]pbp.PlayEvent, error) {
	query := `
		SELECT event_id, event_order, period, time_remaining, time_elapsed_seconds,
			event_type, team_id, player_id, player_name, description, shot_type, sub_type
		FROM play_events
		WHERE game_id = $1
		ORDER BY period, event_order, event_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying play events: %w", err)
	}
	defer rows.Close()

	var events []pbp.PlayEvent
	for rows.Next() {
		var (
			ev               pbp.PlayEvent
			eventType        string
			teamID, playerID sql.NullInt64
		)
		if err := rows.Scan(
			&ev.EventID, &ev.EventOrder, &ev.Period, &ev.TimeRemaining, &ev.TimeElapsedSeconds,
			&eventType, &teamID, &playerID, &ev.PlayerName, &ev.Description, &ev.ShotType, &ev.SubType,
		); err != nil {
			return nil, fmt.Errorf("scanning play event: %w", err)
		}
		ev.EventType = pbp.EventType(eventType)
		ev.TeamID = int(teamID.Int64)
		ev.PlayerID = int(playerID.Int64)
		events = append(events, ev)
	}

	return events, rows.Err()
}
