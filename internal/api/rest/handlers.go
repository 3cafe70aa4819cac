package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fortuna/courtside/internal/ingest/nbacom"
	"github.com/fortuna/courtside/internal/lineup"
	"github.com/fortuna/courtside/internal/pbp"
	"github.com/fortuna/courtside/internal/possession"
	"github.com/fortuna/courtside/internal/processor"
	"github.com/fortuna/courtside/internal/store"
)

// ResultReader is the stored-results read path
type ResultReader interface {
	Game(ctx context.Context, gameID string) (*store.Game, error)
	Possessions(ctx context.Context, gameID string) ([]possession.Possession, error)
	LineupStates(ctx context.Context, gameID string) ([]lineup.LineupState, error)
	Substitutions(ctx context.Context, gameID string) ([]lineup.SubstitutionEvent, error)
}

// SummaryCache holds computed possession summaries
type SummaryCache interface {
	Get(ctx context.Context, gameID string) (*possession.Summary, bool, error)
	Set(ctx context.Context, gameID string, summary *possession.Summary) error
}

// GameProcessor runs a game on demand
type GameProcessor interface {
	Process(ctx context.Context, gameID string, opts processor.Options) (*processor.Outcome, error)
}

// HealthChecker is a dependency /health pings
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	results   ResultReader
	summaries SummaryCache
	proc      GameProcessor
	checks    map[string]HealthChecker
	logger    zerolog.Logger
}

// NewHandler creates a new handler. summaries may be nil.
func NewHandler(results ResultReader, summaries SummaryCache, proc GameProcessor, checks map[string]HealthChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		results:   results,
		summaries: summaries,
		proc:      proc,
		checks:    checks,
		logger:    logger,
	}
}

// HealthCheck pings every dependency
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":  state,
		"service": "courtside",
		"checks":  checks,
	})
}

// GetGame returns the stored game row
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return
	}

	game, err := h.results.Game(r.Context(), gameID)
	if err != nil {
		h.respondLookupError(w, "Failed to fetch game", err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// GetPossessions returns a game's possessions in order
func (h *Handler) GetPossessions(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.processedGame(w, r)
	if !ok {
		return
	}

	possessions, err := h.results.Possessions(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch possessions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":     gameID,
		"count":       len(possessions),
		"possessions": nonNil(possessions),
	})
}

// GetPossessionSummary serves the cached summary, computing and caching it
// from stored possessions on a miss.
func (h *Handler) GetPossessionSummary(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return
	}

	if h.summaries != nil {
		summary, hit, err := h.summaries.Get(r.Context(), gameID)
		if err != nil {
			h.logger.Warn().Err(err).Str("game_id", gameID).Msg("summary cache read failed")
		}
		if hit {
			w.Header().Set("X-Cache", "HIT")
			respondJSON(w, http.StatusOK, summary)
			return
		}
	}

	if _, ok := h.loadGame(w, r, gameID); !ok {
		return
	}
	possessions, err := h.results.Possessions(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch possessions", err)
		return
	}

	summary := possession.Summarize(possessions)
	if h.summaries != nil {
		if err := h.summaries.Set(r.Context(), gameID, &summary); err != nil {
			h.logger.Warn().Err(err).Str("game_id", gameID).Msg("summary cache write failed")
		}
	}

	w.Header().Set("X-Cache", "MISS")
	respondJSON(w, http.StatusOK, summary)
}

// GetLineups returns the lineup timeline
func (h *Handler) GetLineups(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.processedGame(w, r)
	if !ok {
		return
	}

	states, err := h.results.LineupStates(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch lineups", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": gameID,
		"states":  nonNil(states),
	})
}

// GetSubstitutions returns paired substitutions in game order
func (h *Handler) GetSubstitutions(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.processedGame(w, r)
	if !ok {
		return
	}

	subs, err := h.results.Substitutions(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch substitutions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":       gameID,
		"substitutions": nonNil(subs),
	})
}

// GetOnCourt answers who was on the floor at ?period=N&clock=MM:SS
func (h *Handler) GetOnCourt(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	period, err := strconv.Atoi(query.Get("period"))
	if err != nil || period < 1 {
		respondError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	clock := query.Get("clock")
	elapsed, err := pbp.ElapsedSeconds(period, clock)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clock (use MM:SS or PT05M12.00S)", err)
		return
	}

	game, ok := h.loadGame(w, r, gameID)
	if !ok {
		return
	}
	states, err := h.results.LineupStates(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch lineups", err)
		return
	}

	onCourt := lineup.OnCourtAt(states, game.HomeTeamID, game.AwayTeamID, period, elapsed)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":         gameID,
		"period":          period,
		"clock":           clock,
		"seconds_elapsed": elapsed,
		"home_team_id":    game.HomeTeamID,
		"away_team_id":    game.AwayTeamID,
		"home_players":    nonNil(onCourt.HomePlayers),
		"away_players":    nonNil(onCourt.AwayPlayers),
	})
}

// ProcessGame fetches and reconstructs a game now. ?dry_run=true skips
// every write.
func (h *Handler) ProcessGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	out, err := h.proc.Process(r.Context(), gameID, processor.Options{DryRun: dryRun})
	switch {
	case errors.Is(err, nbacom.ErrGameNotFound):
		respondError(w, http.StatusNotFound, "Game not found on NBA.com", err)
		return
	case errors.Is(err, nbacom.ErrNoPayload), errors.Is(err, processor.ErrNoEvents), errors.Is(err, processor.ErrMissingTeams):
		respondError(w, http.StatusUnprocessableEntity, "Game page has no usable play-by-play", err)
		return
	case err != nil:
		respondError(w, http.StatusBadGateway, "Failed to process game", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":       out.GameID,
		"dry_run":       dryRun,
		"persisted":     out.Persisted,
		"events":        len(out.Game.Events),
		"possessions":   len(out.Result.Possessions),
		"substitutions": len(out.Timeline.Substitutions),
		"violations":    nonNil(out.Timeline.Violations),
		"audit":         out.Result.Audit,
		"summary":       out.Summary,
		"took_ms":       out.Took.Milliseconds(),
	})
}

// processedGame validates the path id and confirms the game is stored
func (h *Handler) processedGame(w http.ResponseWriter, r *http.Request) (string, bool) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return "", false
	}
	if _, ok := h.loadGame(w, r, gameID); !ok {
		return "", false
	}
	return gameID, true
}

func (h *Handler) loadGame(w http.ResponseWriter, r *http.Request, gameID string) (*store.Game, bool) {
	game, err := h.results.Game(r.Context(), gameID)
	if err != nil {
		h.respondLookupError(w, "Failed to fetch game", err)
		return nil, false
	}
	return game, true
}

func (h *Handler) respondLookupError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Game not processed", err)
		return
	}
	respondError(w, http.StatusInternalServerError, message, err)
}

func gameIDVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	gameID := mux.Vars(r)["gameID"]
	if err := nbacom.ValidateGameID(gameID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return "", false
	}
	return gameID, true
}

// nonNil keeps empty lists as [] rather than null in responses
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}
