package backfill

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fortuna/courtside/internal/processor"
)

// ErrNoGames is returned for a job with nothing to do
var ErrNoGames = errors.New("no game ids provided")

// GameProcessor runs one game end to end
type GameProcessor interface {
	Process(ctx context.Context, gameID string, opts processor.Options) (*processor.Outcome, error)
}

// Runner executes backfill specs with a bounded pool of workers.
type Runner struct {
	proc    GameProcessor
	workers int
}

// NewRunner constructs a runner. workers below one run games serially.
func NewRunner(proc GameProcessor, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{proc: proc, workers: workers}
}

// Run processes every game in the spec. A failing game is reported and
// skipped; only cancellation of ctx stops the run early.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (*Report, error) {
	start := time.Now()
	rep := &lockedReporter{inner: reporter}
	rep.OnJobStart(spec)

	gameIDs := dedupe(spec.GameIDs)
	if len(gameIDs) == 0 {
		rep.OnJobError(ErrNoGames)
		return nil, ErrNoGames
	}
	if spec.DryRun {
		rep.OnProgress("Dry-run mode: no data will be written", 0, len(gameIDs))
	}

	var (
		mu     sync.Mutex
		report = &Report{}
		done   int
	)
	total := len(gameIDs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for idx, gameID := range gameIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep.OnGameStart(gameID, idx, total)

			out, err := r.proc.Process(gctx, gameID, processor.Options{DryRun: spec.DryRun})

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				report.Failed = append(report.Failed, GameFailure{GameID: gameID, Err: err})
				rep.OnGameFailed(gameID, err)
				rep.OnProgress(fmt.Sprintf("✗ Game %s failed", gameID), done, total)
				return nil
			}
			report.Processed = append(report.Processed, gameID)
			report.Possessions += len(out.Result.Possessions)
			rep.OnGameProcessed(out)
			rep.OnProgress(fmt.Sprintf("✓ Game %s complete", gameID), done, total)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	report.Took = time.Since(start)
	if err != nil {
		rep.OnJobError(err)
		return report, err
	}

	rep.OnJobComplete(report)
	return report, nil
}

// dedupe drops blanks and repeats, keeping first-seen order
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// lockedReporter serialises callbacks from the worker goroutines and
// tolerates a nil reporter.
type lockedReporter struct {
	mu    sync.Mutex
	inner Reporter
}

func (l *lockedReporter) do(fn func(Reporter)) {
	if l.inner == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.inner)
}

func (l *lockedReporter) OnJobStart(spec JobSpec) {
	l.do(func(r Reporter) { r.OnJobStart(spec) })
}

func (l *lockedReporter) OnGameStart(gameID string, index, total int) {
	l.do(func(r Reporter) { r.OnGameStart(gameID, index, total) })
}

func (l *lockedReporter) OnGameProcessed(out *processor.Outcome) {
	l.do(func(r Reporter) { r.OnGameProcessed(out) })
}

func (l *lockedReporter) OnGameFailed(gameID string, err error) {
	l.do(func(r Reporter) { r.OnGameFailed(gameID, err) })
}

func (l *lockedReporter) OnProgress(message string, current, total int) {
	l.do(func(r Reporter) { r.OnProgress(message, current, total) })
}

func (l *lockedReporter) OnJobComplete(report *Report) {
	l.do(func(r Reporter) { r.OnJobComplete(report) })
}

func (l *lockedReporter) OnJobError(err error) {
	l.do(func(r Reporter) { r.OnJobError(err) })
}
