package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fortuna/courtside/internal/backfill"
	"github.com/fortuna/courtside/internal/processor"
)

// consoleReporter prints runner progress for an operator watching the run
type consoleReporter struct {
	out    io.Writer
	dryRun bool
}

func (c *consoleReporter) OnJobStart(spec backfill.JobSpec) {
	fmt.Fprintf(c.out, "Starting backfill of %d games (dry_run=%v)\n", len(spec.GameIDs), c.dryRun)
}

func (c *consoleReporter) OnGameStart(gameID string, index int, total int) {
	fmt.Fprintf(c.out, "[%d/%d] %s\n", index+1, total, gameID)
}

func (c *consoleReporter) OnGameProcessed(out *processor.Outcome) {
	line := fmt.Sprintf("✓ %s: %d possessions, %d substitutions", out.GameID, len(out.Result.Possessions), len(out.Timeline.Substitutions))
	for _, t := range out.Summary.Teams {
		line += fmt.Sprintf(", team %d %d pts / %d poss", t.TeamID, t.Points, t.Possessions)
	}
	if n := len(out.Timeline.Violations); n > 0 {
		line += fmt.Sprintf(" (⚠️  %d lineup issues)", n)
	}
	fmt.Fprintln(c.out, line)
}

func (c *consoleReporter) OnGameFailed(gameID string, err error) {
	fmt.Fprintf(c.out, "✗ %s: %v\n", gameID, err)
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	fmt.Fprintf(c.out, "Progress: %s (%d/%d)\n", message, current, total)
}

func (c *consoleReporter) OnJobComplete(report *backfill.Report) {
	fmt.Fprintf(c.out, "Job complete: %d processed, %d failed, %d possessions in %s\n",
		len(report.Processed), len(report.Failed), report.Possessions, report.Took.Round(time.Millisecond))
	for _, f := range report.Failed {
		fmt.Fprintf(c.out, "  failed %s: %v\n", f.GameID, f.Err)
	}
}

func (c *consoleReporter) OnJobError(err error) {
	fmt.Fprintf(c.out, "Job error: %v\n", err)
}
