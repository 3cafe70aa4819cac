package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/courtside/internal/possession"
	"github.com/fortuna/courtside/internal/store"
)

// PossessionRepository stores derived possessions and their event membership
type PossessionRepository struct {
	db *store.Database
}

// NewPossessionRepository creates a new possession repository
func NewPossessionRepository(db *store.Database) *PossessionRepository {
	return &PossessionRepository{db: db}
}

// ReplaceForGame swaps a game's possessions. The possession_plays primary
// key on (game_id, event_id) rejects any event assigned twice.
func (r *PossessionRepository) ReplaceForGame(ctx context.Context, tx *sql.Tx, gameID string, possessions []possession.Possession) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM possessions WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("deleting possessions: %w", err)
	}
	if len(possessions) == 0 {
		return nil
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO possessions (
			game_id, possession_number, team_id,
			start_period, start_time_remaining, start_seconds_elapsed,
			end_period, end_time_remaining, end_seconds_elapsed,
			possession_outcome, points_scored
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`)
	if err != nil {
		return fmt.Errorf("preparing possession insert: %w", err)
	}
	defer insert.Close()

	for _, p := range possessions {
		_, err := insert.ExecContext(ctx,
			gameID, p.PossessionNumber, p.TeamID,
			p.StartPeriod, p.StartTimeRemaining, p.StartSecondsElapsed,
			p.EndPeriod, p.EndTimeRemaining, p.EndSecondsElapsed,
			string(p.Outcome), p.PointsScored,
		)
		if err != nil {
			return fmt.Errorf("inserting possession %d: %w", p.PossessionNumber, err)
		}
	}

	// Membership goes in after every possession row exists
	copyPlays, err := tx.PrepareContext(ctx, pq.CopyIn("possession_plays", "game_id", "possession_number", "event_id", "position"))
	if err != nil {
		return fmt.Errorf("preparing possession plays copy: %w", err)
	}
	defer copyPlays.Close()

	for _, p := range possessions {
		for pos, eventID := range p.EventIDs {
			if _, err := copyPlays.ExecContext(ctx, gameID, p.PossessionNumber, eventID, pos); err != nil {
				return fmt.Errorf("copying possession %d event %d: %w", p.PossessionNumber, eventID, err)
			}
		}
	}
	if _, err := copyPlays.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing possession plays copy: %w", err)
	}
	return nil
}

// ListForGame returns a game's possessions in order with their event ids
func (r *PossessionRepository) ListForGame(ctx context.Context, gameID string) ([]possession.Possession, error) {
	query := `
		SELECT p.possession_number, p.team_id,
			p.start_period, p.start_time_remaining, p.start_seconds_elapsed,
			p.end_period, p.end_time_remaining, p.end_seconds_elapsed,
			p.possession_outcome, p.points_scored,
			COALESCE(
				(SELECT array_agg(pp.event_id ORDER BY pp.position)
				 FROM possession_plays pp
				 WHERE pp.game_id = p.game_id AND pp.possession_number = p.possession_number),
				'{}'
			)
		FROM possessions p
		WHERE p.game_id = $1
		ORDER BY p.possession_number
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying possessions: %w", err)
	}
	defer rows.Close()

	var possessions []possession.Possession
	for rows.Next() {
		var (
			p          possession.Possession
			outcome    string
			endPeriod  sql.NullInt64
			endClock   sql.NullString
			endElapsed sql.NullInt64
			eventIDs   []int64
		)
		if err := rows.Scan(
			&p.PossessionNumber, &p.TeamID,
			&p.StartPeriod, &p.StartTimeRemaining, &p.StartSecondsElapsed,
			&endPeriod, &endClock, &endElapsed,
			&outcome, &p.PointsScored, pq.Array(&eventIDs),
		); err != nil {
			return nil, fmt.Errorf("scanning possession: %w", err)
		}

		p.Outcome = possession.Outcome(outcome)
		p.EventIDs = store.Ints(eventIDs)
		if endPeriod.Valid {
			v := int(endPeriod.Int64)
			p.EndPeriod = &v
		}
		if endClock.Valid {
			v := endClock.String
			p.EndTimeRemaining = &v
		}
		if endElapsed.Valid {
			v := int(endElapsed.Int64)
			p.EndSecondsElapsed = &v
		}
		possessions = append(possessions, p)
	}

	return possessions, rows.Err()
}
