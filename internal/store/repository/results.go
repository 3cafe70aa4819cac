package repository

import (
	"context"
	"database/sql"

	"github.com/fortuna/courtside/internal/lineup"
	"github.com/fortuna/courtside/internal/pbp"
	"github.com/fortuna/courtside/internal/possession"
	"github.com/fortuna/courtside/internal/store"
)

// GameRecord is everything derived from one processing run of a game
type GameRecord struct {
	Game        *store.Game
	Events      []pbp.PlayEvent
	Possessions []possession.Possession
	Timeline    lineup.Timeline
}

// Results groups the per-table repositories behind one save and the
// read paths the API needs.
type Results struct {
	db          *store.Database
	games       *GameRepository
	plays       *PlayRepository
	possessions *PossessionRepository
	lineups     *LineupRepository
}

// NewResults creates a Results over db
func NewResults(db *store.Database) *Results {
	return &Results{
		db:          db,
		games:       NewGameRepository(db),
		plays:       NewPlayRepository(db),
		possessions: NewPossessionRepository(db),
		lineups:     NewLineupRepository(db),
	}
}

// SaveGame replaces everything stored for the game in one transaction, so
// re-processing a game leaves no stale rows behind.
func (r *Results) SaveGame(ctx context.Context, rec *GameRecord) error {
	gameID := rec.Game.GameID
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.games.Upsert(ctx, tx, rec.Game); err != nil {
			return err
		}
		if err := r.plays.ReplaceForGame(ctx, tx, gameID, rec.Events); err != nil {
			return err
		}
		if err := r.possessions.ReplaceForGame(ctx, tx, gameID, rec.Possessions); err != nil {
			return err
		}
		if err := r.lineups.ReplaceForGame(ctx, tx, gameID, rec.Timeline); err != nil {
			return err
		}
		return r.games.MarkProcessed(ctx, tx, gameID, len(rec.Possessions))
	})
}

// Game returns the stored game row
func (r *Results) Game(ctx context.Context, gameID string) (*store.Game, error) {
	return r.games.GetByExternalID(ctx, gameID)
}

// Events returns the stored play-by-play
func (r *Results) Events(ctx context.Context, gameID string) ([]pbp.PlayEvent, error) {
	return r.plays.ListForGame(ctx, gameID)
}

// Possessions returns the stored possessions
func (r *Results) Possessions(ctx context.Context, gameID string) ([]possession.Possession, error) {
	return r.possessions.ListForGame(ctx, gameID)
}

// LineupStates returns the stored lineup timeline
func (r *Results) LineupStates(ctx context.Context, gameID string) ([]lineup.LineupState, error) {
	return r.lineups.ListStates(ctx, gameID)
}

// Substitutions returns the stored substitutions
func (r *Results) Substitutions(ctx context.Context, gameID string) ([]lineup.SubstitutionEvent, error) {
	return r.lineups.ListSubstitutions(ctx, gameID)
}
