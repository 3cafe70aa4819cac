package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/courtside/internal/store"
)

// GameRepository handles game data access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

// Upsert inserts the game or refreshes its metadata
func (r *GameRepository) Upsert(ctx context.Context, q store.Querier, game *store.Game) error {
	query := `
		INSERT INTO games (
			game_id, game_time, status, home_team_id, away_team_id,
			home_tricode, away_tricode, home_score, away_score,
			home_starters, away_starters
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (game_id) DO UPDATE SET
			game_time = EXCLUDED.game_time,
			status = EXCLUDED.status,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			home_tricode = EXCLUDED.home_tricode,
			away_tricode = EXCLUDED.away_tricode,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			home_starters = EXCLUDED.home_starters,
			away_starters = EXCLUDED.away_starters,
			updated_at = NOW()
	`

	_, err := q.ExecContext(ctx, query,
		game.GameID, game.GameTime, game.Status, game.HomeTeamID, game.AwayTeamID,
		game.HomeTricode, game.AwayTricode, game.HomeScore, game.AwayScore,
		pq.Array(store.Int64s(game.HomeStarters)), pq.Array(store.Int64s(game.AwayStarters)),
	)
	if err != nil {
		return fmt.Errorf("upserting game %s: %w", game.GameID, err)
	}
	return nil
}

// MarkProcessed stamps the game with its possession count
func (r *GameRepository) MarkProcessed(ctx context.Context, q store.Querier, gameID string, possessions int) error {
	res, err := q.ExecContext(ctx, `
		UPDATE games
		SET possession_count = $2, processed_at = NOW(), updated_at = NOW()
		WHERE game_id = $1
	`, gameID, possessions)
	if err != nil {
		return fmt.Errorf("marking game %s processed: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("game %s: %w", gameID, store.ErrNotFound)
	}
	return nil
}

// GetByExternalID finds a game by its NBA.com game id
func (r *GameRepository) GetByExternalID(ctx context.Context, gameID string) (*store.Game, error) {
	query := `
		SELECT game_id, game_time, status, home_team_id, away_team_id,
			home_tricode, away_tricode, home_score, away_score,
			home_starters, away_starters, possession_count, processed_at,
			created_at, updated_at
		FROM games
		WHERE game_id = $1
	`

	game := &store.Game{}
	var homeStarters, awayStarters []int64
	err := r.db.DB().QueryRowContext(ctx, query, gameID).Scan(
		&game.GameID, &game.GameTime, &game.Status, &game.HomeTeamID, &game.AwayTeamID,
		&game.HomeTricode, &game.AwayTricode, &game.HomeScore, &game.AwayScore,
		pq.Array(&homeStarters), pq.Array(&awayStarters), &game.PossessionCount, &game.ProcessedAt,
		&game.CreatedAt, &game.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}

	game.HomeStarters = store.Ints(homeStarters)
	game.AwayStarters = store.Ints(awayStarters)
	return game, nil
}
