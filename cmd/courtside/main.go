package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/courtside/internal/api/rest"
	"github.com/fortuna/courtside/internal/api/websocket"
	"github.com/fortuna/courtside/internal/backfill"
	"github.com/fortuna/courtside/internal/cache"
	"github.com/fortuna/courtside/internal/config"
	"github.com/fortuna/courtside/internal/ingest/nbacom"
	"github.com/fortuna/courtside/internal/logging"
	"github.com/fortuna/courtside/internal/metrics"
	"github.com/fortuna/courtside/internal/processor"
	"github.com/fortuna/courtside/internal/publisher"
	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/store/repository"
)

const (
	serviceName    = "courtside"
	serviceVersion = "1.0.0"

	redisRetries    = 30
	redisRetryDelay = 2 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(logging.Options{})
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.Info().Str("version", serviceVersion).Msgf("Starting %s - possession and lineup service", serviceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDatabase(ctx, cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	logger.Info().Msg("✓ Connected to database")

	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}
	logger.Info().Msg("✓ Database migrations applied")

	redisCache := connectRedis(ctx, cfg.RedisURL, logger)
	defer redisCache.Close()
	logger.Info().Msg("✓ Connected to Redis")

	fetcher, closeFetcher, err := nbacom.NewFetcherForMode(cfg.FetchMode, cfg.RequestInterval, cfg.FetchTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create fetcher")
	}
	defer closeFetcher()

	m := metrics.New()
	results := repository.NewResults(db)
	summaries := cache.NewSummaryCache(redisCache, cfg.CacheTTL)
	hub := websocket.NewHub(m, logger)
	wsServer := websocket.NewServer(hub, logger)

	proc := processor.New(processor.Deps{
		Fetcher:   nbacom.NewClient(cfg.NBAComBaseURL, fetcher, logger),
		Store:     results,
		Cache:     summaries,
		Publisher: publisher.NewRedisStreamPublisher(redisCache.Client()),
		Notifier:  hub,
		Metrics:   m,
		Logger:    logger,
	}, cfg.Possession())

	backfillService := backfill.NewService(
		backfill.NewRepository(db),
		backfill.NewRunner(proc, cfg.Workers),
		logger,
	)
	backfillService.Start()
	logger.Info().Int("workers", cfg.Workers).Msg("✓ Backfill service started")

	restServer := rest.NewServer(cfg.RESTPort, rest.Deps{
		Results:   results,
		Summaries: summaries,
		Processor: proc,
		Backfill:  backfillService,
		Checks: map[string]rest.HealthChecker{
			"postgres": db,
			"redis":    redisCache,
		},
		Metrics: m,
		Logger:  logger,
	})
	go serve(logger, "REST", restServer.Start)
	go serve(logger, "WebSocket", func() error { return wsServer.Start(cfg.WSPort) })

	logger.Info().
		Str("rest", "http://0.0.0.0:"+cfg.RESTPort).
		Str("websocket", "ws://0.0.0.0:"+cfg.WSPort+"/ws/games").
		Msgf("✓ %s v%s started successfully", serviceName, serviceVersion)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("REST API server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("WebSocket server shutdown error")
	}
	if err := backfillService.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("backfill shutdown error")
	}

	logger.Info().Msgf("%s stopped", serviceName)
}

// connectRedis retries while Redis comes up alongside the service
func connectRedis(ctx context.Context, url string, logger zerolog.Logger) *cache.RedisCache {
	var err error
	for i := 0; i < redisRetries; i++ {
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(ctx, url)
		if err == nil {
			return rc
		}
		logger.Warn().Err(err).Int("attempt", i+1).Int("max", redisRetries).Msg("Redis connection failed, retrying")
		time.Sleep(redisRetryDelay)
	}
	logger.Fatal().Err(err).Int("attempts", redisRetries).Msg("failed to connect to Redis")
	return nil
}

func serve(logger zerolog.Logger, name string, start func() error) {
	if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
