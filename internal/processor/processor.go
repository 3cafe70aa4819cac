// Package processor runs one game through ingestion, both reconstruction
// engines, and the storage and notification sinks.
package processor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/courtside/internal/ingest/nbacom"
	"github.com/fortuna/courtside/internal/lineup"
	"github.com/fortuna/courtside/internal/metrics"
	"github.com/fortuna/courtside/internal/possession"
	"github.com/fortuna/courtside/internal/publisher"
	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/store/repository"
)

var (
	// ErrNoEvents means the game has no play-by-play yet
	ErrNoEvents = errors.New("game has no play-by-play events")
	// ErrMissingTeams means the page did not identify both teams
	ErrMissingTeams = errors.New("game is missing team ids")
)

// GameFetcher downloads one game
type GameFetcher interface {
	FetchGame(ctx context.Context, gameID string) (*nbacom.Game, error)
}

// ResultStore persists a processed game
type ResultStore interface {
	SaveGame(ctx context.Context, rec *repository.GameRecord) error
}

// SummaryCache stores possession summaries for the read API
type SummaryCache interface {
	Set(ctx context.Context, gameID string, summary *possession.Summary) error
}

// Publisher announces processed games on a stream
type Publisher interface {
	PublishGameProcessed(ctx context.Context, msg publisher.GameProcessed) (string, error)
}

// Notifier pushes a message to live subscribers
type Notifier interface {
	Broadcast(message []byte)
}

// Options controls a single run
type Options struct {
	// DryRun computes everything but writes nothing and notifies no one
	DryRun bool
}

// Outcome is the result of processing a game
type Outcome struct {
	GameID    string
	Game      *nbacom.Game
	Result    *possession.Result
	Summary   possession.Summary
	Timeline  *lineup.Timeline
	Persisted bool
	Took      time.Duration
}

// Deps are the processor's collaborators. Cache, Publisher and Notifier
// are optional.
type Deps struct {
	Fetcher   GameFetcher
	Store     ResultStore
	Cache     SummaryCache
	Publisher Publisher
	Notifier  Notifier
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Processor turns game ids into stored possessions and lineups
type Processor struct {
	deps    Deps
	tracker *possession.Tracker
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a processor
func New(deps Deps, cfg possession.Config) *Processor {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &Processor{
		deps:    deps,
		tracker: possession.NewTracker(cfg),
		logger:  deps.Logger.With().Str("component", "processor").Logger(),
		now:     time.Now,
	}
}

// ProcessGame fetches, reconstructs and stores one game
func (p *Processor) ProcessGame(ctx context.Context, gameID string) (*Outcome, error) {
	return p.Process(ctx, gameID, Options{})
}

// Process is ProcessGame with options
func (p *Processor) Process(ctx context.Context, gameID string, opts Options) (*Outcome, error) {
	start := time.Now()
	log := p.logger.With().Str("game_id", gameID).Logger()

	out, err := p.process(ctx, gameID, opts, log)
	took := time.Since(start)
	if err != nil {
		p.deps.Metrics.GameProcessed(metrics.ResultFailed, 0, took)
		log.Error().Err(err).Dur("took", took).Msg("processing failed")
		return nil, err
	}

	out.Took = took
	p.deps.Metrics.GameProcessed(metrics.ResultOK, len(out.Result.Possessions), took)
	log.Info().
		Int("events", len(out.Game.Events)).
		Int("possessions", len(out.Result.Possessions)).
		Int("substitutions", len(out.Timeline.Substitutions)).
		Int("violations", len(out.Timeline.Violations)).
		Bool("persisted", out.Persisted).
		Dur("took", took).
		Msg("game processed")
	return out, nil
}

func (p *Processor) process(ctx context.Context, gameID string, opts Options, log zerolog.Logger) (*Outcome, error) {
	fetchStart := time.Now()
	game, err := p.deps.Fetcher.FetchGame(ctx, gameID)
	p.deps.Metrics.FetchObserved(time.Since(fetchStart))
	if err != nil {
		return nil, err
	}
	if game.Home.TeamID == 0 || game.Away.TeamID == 0 {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrMissingTeams)
	}
	if len(game.Events) == 0 {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrNoEvents)
	}

	result := p.tracker.Track(game.Events, game.Home.TeamID, game.Away.TeamID)
	p.recordAudit(result.Audit, log)

	lineups := lineup.New(gameID, game.Home.TeamID, game.Away.TeamID, game.Events, lineup.Starters{
		Home: game.Home.Starters,
		Away: game.Away.Starters,
	})
	timeline := lineups.Build()
	for _, v := range timeline.Violations {
		p.deps.Metrics.LineupViolation(string(v.Kind))
		log.Warn().Str("violation", v.String()).Msg("lineup data-quality issue")
	}

	out := &Outcome{
		GameID:   gameID,
		Game:     game,
		Result:   result,
		Summary:  possession.Summarize(result.Possessions),
		Timeline: timeline,
	}
	if opts.DryRun {
		return out, nil
	}

	starters := lineups.Starters()
	rec := &repository.GameRecord{
		Game: &store.Game{
			GameID:       gameID,
			GameTime:     sql.NullTime{Time: game.GameTime, Valid: !game.GameTime.IsZero()},
			Status:       game.Status,
			HomeTeamID:   game.Home.TeamID,
			AwayTeamID:   game.Away.TeamID,
			HomeTricode:  game.Home.Tricode,
			AwayTricode:  game.Away.Tricode,
			HomeScore:    game.Home.Score,
			AwayScore:    game.Away.Score,
			HomeStarters: starters.Home,
			AwayStarters: starters.Away,
		},
		Events:      game.Events,
		Possessions: result.Possessions,
		Timeline:    *timeline,
	}
	if err := p.deps.Store.SaveGame(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving game %s: %w", gameID, err)
	}
	out.Persisted = true

	p.fanOut(ctx, out, log)
	return out, nil
}

// fanOut updates the cache and notifies subscribers. Failures here are
// logged; the game is already stored.
func (p *Processor) fanOut(ctx context.Context, out *Outcome, log zerolog.Logger) {
	if p.deps.Cache != nil {
		if err := p.deps.Cache.Set(ctx, out.GameID, &out.Summary); err != nil {
			log.Warn().Err(err).Msg("caching summary")
		}
	}

	msg := processedMessage(out, p.now())

	if p.deps.Publisher != nil {
		if _, err := p.deps.Publisher.PublishGameProcessed(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("publishing game processed")
		}
	}

	if p.deps.Notifier != nil {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Warn().Err(err).Msg("encoding notification")
			return
		}
		p.deps.Notifier.Broadcast(data)
		p.deps.Metrics.Broadcasted()
	}
}

func (p *Processor) recordAudit(audit possession.Audit, log zerolog.Logger) {
	p.deps.Metrics.PossessionAnomalies("rebound_without_miss", audit.ReboundWithoutMiss)
	p.deps.Metrics.PossessionAnomalies("missed_ft_no_rebound", audit.MissedFTNoRebound)
	p.deps.Metrics.PossessionAnomalies("unparsed_free_throw", audit.UnparsedFreeThrow)
	p.deps.Metrics.PossessionAnomalies("events_missing_team", audit.EventsMissingTeam)

	if audit != (possession.Audit{}) {
		log.Debug().Interface("audit", audit).Msg("possession heuristics fell back")
	}
}

func processedMessage(out *Outcome, at time.Time) publisher.GameProcessed {
	msg := publisher.GameProcessed{
		Type:             publisher.EventGameProcessed,
		GameID:           out.GameID,
		TotalPossessions: out.Summary.TotalPossessions,
		Teams:            make([]publisher.TeamPoints, 0, len(out.Summary.Teams)),
		LineupViolations: len(out.Timeline.Violations),
		ProcessedAt:      at.UTC(),
	}
	for _, t := range out.Summary.Teams {
		msg.Teams = append(msg.Teams, publisher.TeamPoints{
			TeamID:      t.TeamID,
			Possessions: t.Possessions,
			Points:      t.Points,
		})
	}
	return msg
}
