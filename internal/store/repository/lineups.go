package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/courtside/internal/lineup"
	"github.com/fortuna/courtside/internal/store"
)

// LineupRepository stores substitutions and lineup snapshots
type LineupRepository struct {
	db *store.Database
}

// NewLineupRepository creates a new lineup repository
func NewLineupRepository(db *store.Database) *LineupRepository {
	return &LineupRepository{db: db}
}

// ReplaceForGame swaps a game's substitutions and lineup states
func (r *LineupRepository) ReplaceForGame(ctx context.Context, tx *sql.Tx, gameID string, timeline lineup.Timeline) error {
	for _, table := range []string{"lineup_states", "substitutions"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE game_id = $1`, table), gameID); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}

	if len(timeline.Substitutions) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO substitutions (
				game_id, action_number, period, clock, seconds_elapsed, team_id,
				player_out_id, player_out_name, player_in_id, player_in_name, description
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`)
		if err != nil {
			return fmt.Errorf("preparing substitution insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range timeline.Substitutions {
			_, err := stmt.ExecContext(ctx,
				gameID, s.ActionNumber, s.Period, s.Clock, s.SecondsElapsed, s.TeamID,
				s.PlayerOutID, s.PlayerOutName, s.PlayerInID, s.PlayerInName, s.Description,
			)
			if err != nil {
				return fmt.Errorf("inserting substitution %d: %w", s.ActionNumber, err)
			}
		}
	}

	if len(timeline.States) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO lineup_states (
				game_id, seq, team_id, period, clock, seconds_elapsed, players, substitution_action
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`)
		if err != nil {
			return fmt.Errorf("preparing lineup insert: %w", err)
		}
		defer stmt.Close()

		for seq, st := range timeline.States {
			_, err := stmt.ExecContext(ctx,
				gameID, seq, st.TeamID, st.Period, st.Clock, st.SecondsElapsed,
				pq.Array(store.Int64s(st.Players)), store.NullableInt(st.SubstitutionAction),
			)
			if err != nil {
				return fmt.Errorf("inserting lineup state %d: %w", seq, err)
			}
		}
	}

	return nil
}

// ListStates returns a game's lineup timeline in build order
func (r *LineupRepository) ListStates(ctx context.Context, gameID string) ([]lineup.LineupState, error) {
	query := `
		SELECT team_id, period, clock, seconds_elapsed, players, substitution_action
		FROM lineup_states
		WHERE game_id = $1
		ORDER BY seq
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying lineup states: %w", err)
	}
	defer rows.Close()

	var states []lineup.LineupState
	for rows.Next() {
		var (
			st      = lineup.LineupState{GameID: gameID}
			players []int64
			action  sql.NullInt64
		)
		if err := rows.Scan(&st.TeamID, &st.Period, &st.Clock, &st.SecondsElapsed, pq.Array(&players), &action); err != nil {
			return nil, fmt.Errorf("scanning lineup state: %w", err)
		}
		st.Players = store.Ints(players)
		st.SubstitutionAction = int(action.Int64)
		states = append(states, st)
	}

	return states, rows.Err()
}

// ListSubstitutions returns a game's substitutions in game order
func (r *LineupRepository) ListSubstitutions(ctx context.Context, gameID string) ([]lineup.SubstitutionEvent, error) {
	query := `
		SELECT action_number, period, clock, seconds_elapsed, team_id,
			player_out_id, player_out_name, player_in_id, player_in_name, description
		FROM substitutions
		WHERE game_id = $1
		ORDER BY period, seconds_elapsed, action_number
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying substitutions: %w", err)
	}
	defer rows.Close()

	var subs []lineup.SubstitutionEvent
	for rows.Next() {
		var s lineup.SubstitutionEvent
		if err := rows.Scan(
			&s.ActionNumber, &s.Period, &s.Clock, &s.SecondsElapsed, &s.TeamID,
			&s.PlayerOutID, &s.PlayerOutName, &s.PlayerInID, &s.PlayerInName, &s.Description,
		); err != nil {
			return nil, fmt.Errorf("scanning substitution: %w", err)
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}
