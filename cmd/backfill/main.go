package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

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
	appName    = "courtside-backfill"
	appVersion = "1.0.0"
)

type options struct {
	games     []string
	gamesFile string
	workers   int
	dryRun    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Reconstruct possessions and lineups for a list of NBA games",
		Version:      appVersion,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := collectGameIDs(opts.games, opts.gamesFile)
			if err != nil {
				return err
			}
			if _, err := (backfill.Request{GameIDs: ids}).Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), opts, ids)
		},
	}

	cmd.Flags().StringArrayVar(&opts.games, "game", nil, "NBA game id to process (repeatable)")
	cmd.Flags().StringVar(&opts.gamesFile, "games-file", "", "file with one game id per line")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent games (default from config)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "fetch and compute but do not write")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options, ids []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	workers := cfg.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}

	fetcher, closeFetcher, err := nbacom.NewFetcherForMode(cfg.FetchMode, cfg.RequestInterval, cfg.FetchTimeout)
	if err != nil {
		return err
	}
	defer closeFetcher()

	deps := processor.Deps{
		Fetcher: nbacom.NewClient(cfg.NBAComBaseURL, fetcher, logger),
		Metrics: metrics.New(),
		Logger:  logger,
	}

	// A dry run never writes, so it needs neither store
	if !opts.dryRun {
		db, err := store.NewDatabase(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		deps.Store = repository.NewResults(db)

		if rc, err := cache.NewRedisCache(ctx, cfg.RedisURL); err != nil {
			logger.Warn().Err(err).Msg("⚠️  Redis unavailable, summaries will not be cached")
		} else {
			defer rc.Close()
			deps.Cache = cache.NewSummaryCache(rc, cfg.CacheTTL)
			deps.Publisher = publisher.NewRedisStreamPublisher(rc.Client())
		}
	}

	runner := backfill.NewRunner(processor.New(deps, cfg.Possession()), workers)
	reporter := &consoleReporter{out: out, dryRun: opts.dryRun}

	report, err := runner.Run(ctx, backfill.JobSpec{GameIDs: ids, DryRun: opts.dryRun}, reporter)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d games failed", len(report.Failed), len(report.Failed)+len(report.Processed))
	}
	return nil
}

// collectGameIDs merges --game values with the ids in --games-file
func collectGameIDs(games []string, path string) ([]string, error) {
	ids := append([]string(nil), games...)
	if path == "" {
		return ids, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open games file: %w", err)
	}
	defer f.Close()

	fromFile, err := readGameIDs(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return append(ids, fromFile...), nil
}

// readGameIDs reads one id per line, skipping blanks and # comments
func readGameIDs(r io.Reader) ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids, scanner.Err()
}
