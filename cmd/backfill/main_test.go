package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/backfill"
	"github.com/fortuna/courtside/internal/ingest/nbacom"
	"github.com/fortuna/courtside/internal/lineup"
	"github.com/fortuna/courtside/internal/possession"
	"github.com/fortuna/courtside/internal/processor"
)

func TestReadGameIDs(t *testing.T) {
	ids, err := readGameIDs(strings.NewReader("0022400061\n\n# opening night\n 0022400062  # late game\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0022400061", "0022400062"}, ids)
}

func TestCollectGameIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.txt")
	require.NoError(t, os.WriteFile(path, []byte("0022400063\n"), 0o600))

	ids, err := collectGameIDs([]string{"0022400061"}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"0022400061", "0022400063"}, ids)

	_, err = collectGameIDs(nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestRootCommand_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no games", []string{}, backfill.ErrNoGames},
		{"malformed game", []string{"--game", "12345"}, nbacom.ErrInvalidGameID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &consoleReporter{out: &buf}

	r.OnGameProcessed(&processor.Outcome{
		GameID: "0022400061",
		Result: &possession.Result{Possessions: make([]possession.Possession, 4)},
		Summary: possession.Summary{Teams: []possession.TeamSummary{
			{TeamID: 1610612737, Points: 3, Possessions: 2},
		}},
		Timeline: &lineup.Timeline{Violations: []lineup.Violation{{}}},
	})
	r.OnGameFailed("0022400062", errors.New("no payload"))

	out := buf.String()
	assert.Contains(t, out, "✓ 0022400061: 4 possessions, 0 substitutions, team 1610612737 3 pts / 2 poss (⚠️  1 lineup issues)")
	assert.Contains(t, out, "✗ 0022400062: no payload")
}
