package backfill

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fortuna/courtside/internal/ingest/nbacom"
	"github.com/fortuna/courtside/internal/processor"
)

const (
	defaultHistoryLimit = 10
	defaultPollInterval = 3 * time.Second
)

// Request represents a backfill invocation request.
type Request struct {
	GameIDs []string
	DryRun  bool
}

// Validate checks every game id and returns the de-duplicated list
func (r Request) Validate() ([]string, error) {
	ids := dedupe(r.GameIDs)
	if len(ids) == 0 {
		return nil, ErrNoGames
	}
	for _, id := range ids {
		if err := nbacom.ValidateGameID(id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo   JobStore
	runner *Runner

	historyLimit int
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger zerolog.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(repo JobStore, runner *Runner, logger zerolog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:         repo,
		runner:       runner,
		historyLimit: defaultHistoryLimit,
		pollInterval: defaultPollInterval,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger.With().Str("component", "backfill").Logger(),
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset jobs")
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for it to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new queued job from the request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	ids, err := req.Validate()
	if err != nil {
		return nil, err
	}

	job := &Job{
		JobID:         uuid.NewString(),
		GameIDs:       ids,
		DryRun:        req.DryRun,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: len(ids),
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	s.appendEvent(stored.JobID, "queued", fmt.Sprintf("Job queued with %d games", len(ids)))
	s.logger.Info().Str("job_id", stored.JobID).Int("games", len(ids)).Bool("dry_run", req.DryRun).Msg("backfill queued")

	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		job, err := s.repo.MarkNextJobRunning(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("claim job error")
		}
		if job == nil {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}

		s.executeJob(job)
	}
}

func (s *Service) executeJob(job *Job) {
	log := s.logger.With().Str("job_id", job.JobID).Logger()
	spec := JobSpec{GameIDs: job.GameIDs, DryRun: job.DryRun}

	reporter := &jobReporter{
		ctx:   s.ctx,
		repo:  s.repo,
		jobID: job.JobID,
		total: len(spec.GameIDs),
		log:   log,
	}

	report, err := s.runner.Run(s.ctx, spec, reporter)
	if err != nil {
		log.Error().Err(err).Msg("backfill job failed")
		s.updateStatus(job.JobID, JobStatusFailed, "Job failed", err)
		return
	}

	msg := fmt.Sprintf("Job completed: %d processed, %d failed", len(report.Processed), len(report.Failed))
	var lastErr error
	if n := len(report.Failed); n > 0 {
		lastErr = report.Failed[n-1].Err
	}
	log.Info().
		Int("processed", len(report.Processed)).
		Int("failed", len(report.Failed)).
		Int("possessions", report.Possessions).
		Dur("took", report.Took).
		Msg("backfill job complete")
	s.updateStatus(job.JobID, JobStatusCompleted, msg, lastErr)
}

// updateStatus uses a fresh context so a job interrupted by shutdown still
// records its final state.
func (s *Service) updateStatus(jobID string, status JobStatus, message string, lastErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.UpdateStatus(ctx, jobID, status, message, lastErr); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("updating job status")
	}
}

func (s *Service) appendEvent(jobID, eventType, message string) {
	if err := s.repo.AppendEvent(s.ctx, jobID, eventType, message); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("appending job event")
	}
}

// jobReporter writes runner progress onto the job row.
type jobReporter struct {
	ctx   context.Context
	repo  JobStore
	jobID string
	total int
	log   zerolog.Logger
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	r.progress(0, "Job starting")
}

func (r *jobReporter) OnGameStart(gameID string, index int, total int) {
	r.log.Debug().Str("game_id", gameID).Int("index", index+1).Int("total", total).Msg("processing game")
}

func (r *jobReporter) OnGameProcessed(out *processor.Outcome) {
	r.event("game", fmt.Sprintf("Game %s processed: %d possessions", out.GameID, len(out.Result.Possessions)))
}

func (r *jobReporter) OnGameFailed(gameID string, err error) {
	if rerr := r.repo.RecordFailedGame(r.ctx, r.jobID, gameID); rerr != nil {
		r.log.Warn().Err(rerr).Str("game_id", gameID).Msg("recording failed game")
	}
	r.event("error", fmt.Sprintf("Game %s failed: %v", gameID, err))
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	if total > 0 {
		r.total = total
	}
	r.progress(current, message)
}

func (r *jobReporter) OnJobComplete(report *Report) {
	r.progress(r.total, "Job complete")
}

func (r *jobReporter) OnJobError(err error) {
	r.event("error", err.Error())
}

func (r *jobReporter) progress(current int, message string) {
	if err := r.repo.UpdateProgress(r.ctx, r.jobID, current, r.total, message); err != nil {
		r.log.Warn().Err(err).Msg("updating job progress")
	}
}

func (r *jobReporter) event(eventType, message string) {
	if err := r.repo.AppendEvent(r.ctx, r.jobID, eventType, message); err != nil {
		r.log.Warn().Err(err).Msg("appending job event")
	}
}
