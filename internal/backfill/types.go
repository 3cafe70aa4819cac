package backfill

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/courtside/internal/processor"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job models the database representation of a backfill job.
type Job struct {
	JobID           string
	GameIDs         pq.StringArray
	DryRun          bool
	Status          JobStatus
	StatusMessage   sql.NullString
	ProgressCurrent int
	ProgressTotal   int
	FailedGames     pq.StringArray
	LastError       sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	cpy.GameIDs = append(pq.StringArray(nil), j.GameIDs...)
	cpy.FailedGames = append(pq.StringArray(nil), j.FailedGames...)
	return &cpy
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	GameIDs []string
	DryRun  bool
}

// GameFailure is one game the runner could not process
type GameFailure struct {
	GameID string
	Err    error
}

// Report is what a run did
type Report struct {
	Processed   []string
	Failed      []GameFailure
	Possessions int
	Took        time.Duration
}

// Reporter receives lifecycle callbacks from the runner. The runner never
// calls a reporter from two goroutines at once.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnGameStart(gameID string, index int, total int)
	OnGameProcessed(out *processor.Outcome)
	OnGameFailed(gameID string, err error)
	OnProgress(message string, current int, total int)
	OnJobComplete(report *Report)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job
	History   []*Job
}
