// Package rest serves stored possessions and lineups over HTTP.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fortuna/courtside/internal/metrics"
)

// Deps are the collaborators behind the routes. Backfill and Summaries
// may be nil; a nil Backfill leaves its routes unregistered.
type Deps struct {
	Results   ResultReader
	Summaries SummaryCache
	Processor GameProcessor
	Backfill  BackfillService
	Checks    map[string]HealthChecker
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler http.Handler
	logger  zerolog.Logger
}

// NewServer creates a new REST API server
func NewServer(port string, deps Deps) *Server {
	logger := deps.Logger.With().Str("component", "rest").Logger()
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	handler := NewHandler(deps.Results, deps.Summaries, deps.Processor, deps.Checks, logger)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger, deps.Metrics))

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Games
	api.HandleFunc("/games/{gameID}", handler.GetGame).Methods("GET")
	api.HandleFunc("/games/{gameID}/possessions", handler.GetPossessions).Methods("GET")
	api.HandleFunc("/games/{gameID}/possessions/summary", handler.GetPossessionSummary).Methods("GET")
	api.HandleFunc("/games/{gameID}/lineups", handler.GetLineups).Methods("GET")
	api.HandleFunc("/games/{gameID}/substitutions", handler.GetSubstitutions).Methods("GET")
	api.HandleFunc("/games/{gameID}/on-court", handler.GetOnCourt).Methods("GET")
	api.HandleFunc("/games/{gameID}/process", handler.ProcessGame).Methods("POST")

	// Backfill operations
	if deps.Backfill != nil {
		backfillHandler := NewBackfillHandler(deps.Backfill)
		api.HandleFunc("/backfill", backfillHandler.HandleBackfillRequest).Methods("POST")
		api.HandleFunc("/backfill/status", backfillHandler.HandleBackfillStatus).Methods("GET")
	}

	// CORS wraps the router so preflight requests never reach route matching
	h := CORSMiddleware(router)

	return &Server{
		port:    port,
		handler: h,
		logger:  logger,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the REST API server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.port).Msg("REST API listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
