package possession

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	possessions := []Possession{
		{PossessionNumber: 1, TeamID: hawks, Outcome: OutcomeMadeShot, PointsScored: 3},
		{PossessionNumber: 2, TeamID: celtics, Outcome: OutcomeDefensiveRebound},
		{PossessionNumber: 3, TeamID: hawks, Outcome: OutcomeTurnover},
		{PossessionNumber: 4, TeamID: celtics, Outcome: OutcomeMadeFreeThrow, PointsScored: 2},
		{PossessionNumber: 5, TeamID: hawks, Outcome: OutcomeMadeShot, PointsScored: 2},
	}

	summary := Summarize(possessions)

	assert.Equal(t, 5, summary.TotalPossessions)
	require.Len(t, summary.Teams, 2)
	assert.Equal(t, hawks, summary.Teams[0].TeamID)

	h, ok := summary.Team(hawks)
	require.True(t, ok)
	assert.Equal(t, 3, h.Possessions)
	assert.Equal(t, 5, h.Points)
	assert.InDelta(t, 5.0/3.0, h.PointsPerPossession, 1e-9)
	assert.Equal(t, 2, h.Outcomes[OutcomeMadeShot])
	assert.Equal(t, 1, h.Outcomes[OutcomeTurnover])

	c, ok := summary.Team(celtics)
	require.True(t, ok)
	assert.Equal(t, 2, c.Possessions)
	assert.InDelta(t, 1.0, c.PointsPerPossession, 1e-9)

	_, ok = summary.Team(42)
	assert.False(t, ok)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Zero(t, summary.TotalPossessions)
	assert.Empty(t, summary.Teams)
}

func TestSummarize_MatchesTrackedPoints(t *testing.T) {
	seq := mixedGame()

	summary := Summarize(Track(seq.events, hawks, celtics))

	total := 0
	for _, ts := range summary.Teams {
		total += ts.Points
	}
	assert.Equal(t, Points(seq.events), total)
}
