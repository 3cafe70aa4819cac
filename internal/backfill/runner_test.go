package backfill

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/possession"
	"github.com/fortuna/courtside/internal/processor"
)

type fakeProcessor struct {
	mu      sync.Mutex
	fail    map[string]error
	calls   []string
	dryRuns []bool
	// cancel, when set, is called once the named game starts
	cancelOn string
	cancel   context.CancelFunc
}

func (f *fakeProcessor) Process(ctx context.Context, gameID string, opts processor.Options) (*processor.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, gameID)
	f.dryRuns = append(f.dryRuns, opts.DryRun)
	f.mu.Unlock()

	if gameID == f.cancelOn && f.cancel != nil {
		f.cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.fail[gameID]; err != nil {
		return nil, err
	}
	return &processor.Outcome{
		GameID: gameID,
		Result: &possession.Result{Possessions: make([]possession.Possession, 2)},
	}, nil
}

type recordingReporter struct {
	started   int
	processed []string
	failed    []string
	progress  []int
	complete  *Report
	errs      []error
}

func (r *recordingReporter) OnJobStart(JobSpec) { r.started++ }
func (r *recordingReporter) OnGameStart(string, int, int) {}
func (r *recordingReporter) OnGameFailed(id string, _ error) { r.failed = append(r.failed, id) }
func (r *recordingReporter) OnJobComplete(rep *Report) { r.complete = rep }
func (r *recordingReporter) OnJobError(err error) { r.errs = append(r.errs, err) }

func (r *recordingReporter) OnGameProcessed(out *processor.Outcome) {
	r.processed = append(r.processed, out.GameID)
}

func (r *recordingReporter) OnProgress(_ string, current, _ int) {
	r.progress = append(r.progress, current)
}

func TestRunner_ContinuesPastFailures(t *testing.T) {
	boom := errors.New("payload missing")
	proc := &fakeProcessor{fail: map[string]error{"0022400002": boom}}
	rep := &recordingReporter{}

	report, err := NewRunner(proc, 3).Run(context.Background(), JobSpec{
		GameIDs: []string{"0022400001", "0022400002", "0022400003", "0022400001", ""},
	}, rep)
	require.NoError(t, err)

	sort.Strings(report.Processed)
	assert.Equal(t, []string{"0022400001", "0022400003"}, report.Processed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "0022400002", report.Failed[0].GameID)
	assert.ErrorIs(t, report.Failed[0].Err, boom)
	assert.Equal(t, 4, report.Possessions)

	assert.Len(t, proc.calls, 3)
	assert.Equal(t, 1, rep.started)
	assert.ElementsMatch(t, []string{"0022400001", "0022400003"}, rep.processed)
	assert.Equal(t, []string{"0022400002"}, rep.failed)
	assert.ElementsMatch(t, []int{1, 2, 3}, rep.progress)
	assert.Same(t, report, rep.complete)
	assert.Empty(t, rep.errs)
}

func TestRunner_DryRunPassesThrough(t *testing.T) {
	proc := &fakeProcessor{}
	rep := &recordingReporter{}

	_, err := NewRunner(proc, 0).Run(context.Background(), JobSpec{
		GameIDs: []string{"0022400001", "0022400002"},
		DryRun:  true,
	}, rep)
	require.NoError(t, err)

	assert.Equal(t, []string{"0022400001", "0022400002"}, proc.calls)
	assert.Equal(t, []bool{true, true}, proc.dryRuns)
	// leading dry-run notice plus one per game
	assert.Equal(t, []int{0, 1, 2}, rep.progress)
}

func TestRunner_NoGames(t *testing.T) {
	rep := &recordingReporter{}
	_, err := NewRunner(&fakeProcessor{}, 2).Run(context.Background(), JobSpec{GameIDs: []string{""}}, rep)

	assert.ErrorIs(t, err, ErrNoGames)
	require.Len(t, rep.errs, 1)
	assert.Nil(t, rep.complete)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc := &fakeProcessor{cancelOn: "0022400002", cancel: cancel}
	rep := &recordingReporter{}

	report, err := NewRunner(proc, 1).Run(ctx, JobSpec{
		GameIDs: []string{"0022400001", "0022400002", "0022400003"},
	}, rep)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, []string{"0022400001"}, report.Processed)
	assert.Empty(t, report.Failed)
	assert.Equal(t, []string{"0022400001", "0022400002"}, proc.calls)
	assert.Nil(t, rep.complete)
	assert.Len(t, rep.errs, 1)
}

func TestRunner_NilReporter(t *testing.T) {
	report, err := NewRunner(&fakeProcessor{}, 2).Run(context.Background(), JobSpec{
		GameIDs: []string{"0022400001"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"0022400001"}, report.Processed)
}
