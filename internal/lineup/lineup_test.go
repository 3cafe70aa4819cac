package lineup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/pbp"
)

const (
	home = 1610612737
	away = 1610612738

	gameID = "0022400001"
)

var (
	homeStarters = []int{101, 102, 103, 104, 105}
	awayStarters = []int{201, 202, 203, 204, 205}
)

type feed struct {
	events []pbp.PlayEvent
}

func (f *feed) add(ev pbp.PlayEvent) *feed {
	n := len(f.events) + 1
	ev.EventID = n
	ev.EventOrder = n
	if ev.Period == 0 {
		ev.Period = 1
	}
	ev.TimeRemaining = pbp.DisplayClock(ev.Period, ev.TimeElapsedSeconds)
	f.events = append(f.events, ev)
	return f
}

func (f *feed) play(period, elapsed, team, player int) *feed {
	return f.add(pbp.PlayEvent{
		Period:             period,
		TimeElapsedSeconds: elapsed,
		EventType:          pbp.EventMadeShot,
		TeamID:             team,
		PlayerID:           player,
		Description:        "Jump Shot",
	})
}

func (f *feed) sub(period, elapsed, team, out, in int) *feed {
	f.add(pbp.PlayEvent{
		Period:             period,
		TimeElapsedSeconds: elapsed,
		EventType:          pbp.EventSubstitution,
		TeamID:             team,
		PlayerID:           out,
		PlayerName:         "Out Player",
		SubType:            "out",
		Description:        "SUB out: Out Player",
	})
	return f.add(pbp.PlayEvent{
		Period:             period,
		TimeElapsedSeconds: elapsed,
		EventType:          pbp.EventSubstitution,
		TeamID:             team,
		PlayerID:           in,
		PlayerName:         "In Player",
		SubType:            "in",
		Description:        "SUB in: In Player",
	})
}

func standardGame() *feed {
	f := &feed{}
	f.play(1, 20, home, 101).play(1, 40, away, 201)
	f.sub(1, 180, home, 101, 106)
	f.sub(1, 300, away, 202, 206)
	f.play(1, 320, home, 106)
	f.sub(1, 420, home, 102, 107)
	f.sub(2, 0, home, 106, 101)
	return f
}

func newStandardTracker() *Tracker {
	return New(gameID, home, away, standardGame().events, Starters{Home: homeStarters, Away: awayStarters})
}

func TestParseSubstitutionEvents(t *testing.T) {
	subs := newStandardTracker().ParseSubstitutionEvents()

	require.Len(t, subs, 4)

	assert.Equal(t, home, subs[0].TeamID)
	assert.Equal(t, 101, subs[0].PlayerOutID)
	assert.Equal(t, 106, subs[0].PlayerInID)
	assert.Equal(t, 180, subs[0].SecondsElapsed)
	assert.Equal(t, "9:00", subs[0].Clock)
	assert.Equal(t, "SUB: In Player FOR Out Player", subs[0].Description)

	assert.Equal(t, away, subs[1].TeamID)
	assert.Equal(t, 202, subs[1].PlayerOutID)
	assert.Equal(t, 206, subs[1].PlayerInID)

	assert.Equal(t, 2, subs[3].Period)
	assert.Equal(t, 106, subs[3].PlayerOutID)
	assert.Equal(t, 101, subs[3].PlayerInID)
}

func TestParseSubstitutionEvents_GroupedAtSameClock(t *testing.T) {
	f := &feed{}
	out := func(team, player int) {
		f.add(pbp.PlayEvent{TimeElapsedSeconds: 200, EventType: pbp.EventSubstitution, TeamID: team, PlayerID: player, SubType: "out"})
	}
	in := func(team, player int) {
		f.add(pbp.PlayEvent{TimeElapsedSeconds: 200, EventType: pbp.EventSubstitution, TeamID: team, PlayerID: player, SubType: "in"})
	}
	out(home, 101)
	out(home, 102)
	out(away, 201)
	in(home, 106)
	in(away, 206)
	in(home, 107)

	tracker := New(gameID, home, away, f.events, Starters{Home: homeStarters, Away: awayStarters})
	subs := tracker.ParseSubstitutionEvents()

	require.Len(t, subs, 3)
	assert.Equal(t, [2]int{101, 106}, [2]int{subs[0].PlayerOutID, subs[0].PlayerInID})
	assert.Equal(t, [2]int{102, 107}, [2]int{subs[1].PlayerOutID, subs[1].PlayerInID})
	assert.Equal(t, [2]int{201, 206}, [2]int{subs[2].PlayerOutID, subs[2].PlayerInID})
	assert.Empty(t, tracker.Build().Violations)
}

func TestParseSubstitutionEvents_DirectionFromDescription(t *testing.T) {
	f := &feed{}
	f.add(pbp.PlayEvent{TimeElapsedSeconds: 60, EventType: pbp.EventSubstitution, TeamID: home, PlayerID: 103, Description: "SUB out: Capela"})
	f.add(pbp.PlayEvent{TimeElapsedSeconds: 60, EventType: pbp.EventSubstitution, TeamID: home, PlayerID: 106, Description: "SUB in: Okongwu"})

	subs := New(gameID, home, away, f.events, Starters{Home: homeStarters, Away: awayStarters}).ParseSubstitutionEvents()

	require.Len(t, subs, 1)
	assert.Equal(t, 103, subs[0].PlayerOutID)
	assert.Equal(t, 106, subs[0].PlayerInID)
}

func TestBuildLineupTimeline_Continuity(t *testing.T) {
	tracker := newStandardTracker()
	states := tracker.BuildLineupTimeline()
	subs := tracker.ParseSubstitutionEvents()

	require.Len(t, states, 2+len(subs))
	assert.Equal(t, homeStarters, states[0].Players)
	assert.Equal(t, awayStarters, states[1].Players)

	byAction := make(map[int]SubstitutionEvent, len(subs))
	for _, s := range subs {
		byAction[s.ActionNumber] = s
	}

	last := map[int]LineupState{}
	for _, state := range states {
		assert.Len(t, state.Players, LineupSize)
		assert.Equal(t, gameID, state.GameID)

		prev, ok := last[state.TeamID]
		last[state.TeamID] = state
		if !ok {
			continue
		}

		removed := difference(prev.Players, state.Players)
		added := difference(state.Players, prev.Players)
		require.Len(t, removed, 1)
		require.Len(t, added, 1)

		sub, ok := byAction[state.SubstitutionAction]
		require.True(t, ok, "state without substitution")
		assert.Equal(t, sub.PlayerOutID, removed[0])
		assert.Equal(t, sub.PlayerInID, added[0])
		assert.Equal(t, sub.Period, state.Period)
		assert.Equal(t, sub.SecondsElapsed, state.SecondsElapsed)
	}

	assert.Empty(t, tracker.Build().Violations)
}

func TestGetPlayersOnCourt(t *testing.T) {
	tracker := newStandardTracker()

	tests := []struct {
		name   string
		period int
		clock  string
		home   []int
		away   []int
	}{
		{"tip-off", 1, "12:00", homeStarters, awayStarters},
		{"before first sub", 1, "9:30", homeStarters, awayStarters},
		{"at first sub", 1, "9:00", []int{102, 103, 104, 105, 106}, awayStarters},
		{"between subs", 1, "8:00", []int{102, 103, 104, 105, 106}, awayStarters},
		{"after away sub", 1, "PT06M00.00S", []int{102, 103, 104, 105, 106}, []int{201, 203, 204, 205, 206}},
		{"late first quarter", 1, "1:00", []int{103, 104, 105, 106, 107}, []int{201, 203, 204, 205, 206}},
		{"second quarter", 2, "6:00", []int{101, 103, 104, 105, 107}, []int{201, 203, 204, 205, 206}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			onCourt, err := tracker.GetPlayersOnCourt(tt.period, tt.clock)
			require.NoError(t, err)
			assert.Equal(t, tt.home, onCourt.HomePlayers)
			assert.Equal(t, tt.away, onCourt.AwayPlayers)
		})
	}
}

func TestGetPlayersOnCourt_InvalidClock(t *testing.T) {
	_, err := newStandardTracker().GetPlayersOnCourt(1, "halftime")
	assert.Error(t, err)
}

func TestBuild_SurfacesViolations(t *testing.T) {
	t.Run("short starting lineup", func(t *testing.T) {
		tracker := New(gameID, home, away, nil, Starters{Home: []int{101, 102, 103, 104}, Away: awayStarters})

		tl := tracker.Build()

		require.Len(t, tl.States, 2)
		require.Len(t, tl.Violations, 1)
		assert.Equal(t, ViolationLineupSize, tl.Violations[0].Kind)
		assert.Equal(t, home, tl.Violations[0].TeamID)
	})

	t.Run("player subbed out while on bench", func(t *testing.T) {
		f := (&feed{}).sub(1, 100, home, 199, 106)
		tracker := New(gameID, home, away, f.events, Starters{Home: homeStarters, Away: awayStarters})

		tl := tracker.Build()

		require.Len(t, tl.States, 3)
		assert.Len(t, tl.States[2].Players, 6)
		kinds := violationKinds(tl.Violations)
		assert.Contains(t, kinds, ViolationPlayerNotOnCourt)
		assert.Contains(t, kinds, ViolationLineupSize)
	})

	t.Run("unpaired action", func(t *testing.T) {
		f := &feed{}
		f.add(pbp.PlayEvent{TimeElapsedSeconds: 50, EventType: pbp.EventSubstitution, TeamID: away, PlayerID: 201, SubType: "out"})
		tracker := New(gameID, home, away, f.events, Starters{Home: homeStarters, Away: awayStarters})

		tl := tracker.Build()

		assert.Empty(t, tl.Substitutions)
		require.Len(t, tl.Violations, 1)
		assert.Equal(t, ViolationUnpairedSubstitution, tl.Violations[0].Kind)
	})
}

func TestInferStarters(t *testing.T) {
	f := &feed{}
	f.play(1, 10, home, 101).play(1, 12, home, 102).play(1, 14, away, 201)
	f.sub(1, 60, home, 103, 106)
	f.play(1, 70, home, 106)
	f.play(1, 80, home, 104).play(1, 90, home, 105).play(1, 95, home, 107)
	for i, p := range []int{202, 203, 204, 205} {
		f.play(1, 100+i, away, p)
	}

	starters := InferStarters(f.events, home, away)

	assert.Equal(t, []int{101, 102, 103, 104, 105}, starters.Home)
	assert.Equal(t, awayStarters, starters.Away)
}

func TestNew_InfersMissingStarters(t *testing.T) {
	tracker := New(gameID, home, away, standardGame().events, Starters{Away: awayStarters})

	assert.Equal(t, []int{101}, tracker.Starters().Home[:1])
	assert.Equal(t, awayStarters, tracker.Starters().Away)
}

func difference(a, b []int) []int {
	in := make(map[int]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	var out []int
	for _, id := range a {
		if !in[id] {
			out = append(out, id)
		}
	}
	return out
}

func violationKinds(vs []Violation) []ViolationKind {
	kinds := make([]ViolationKind, 0, len(vs))
	for _, v := range vs {
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

func TestOnCourtAt_StoredStates(t *testing.T) {
	states := newStandardTracker().BuildLineupTimeline()

	onCourt := OnCourtAt(states, home, away, 1, 360)

	assert.Equal(t, []int{102, 103, 104, 105, 106}, onCourt.HomePlayers)
	assert.Equal(t, []int{201, 203, 204, 205, 206}, onCourt.AwayPlayers)
	assert.Empty(t, OnCourtAt(nil, home, away, 1, 0).HomePlayers)
}
