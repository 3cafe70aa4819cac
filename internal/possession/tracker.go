package possession

import "github.com/fortuna/courtside/internal/pbp"

const (
	// DefaultReboundLookback is how many prior events are searched for the
	// miss a rebound belongs to.
	DefaultReboundLookback = 10
	// DefaultFreeThrowLookahead is how many following events are searched
	// for the rebound of a missed final free throw.
	DefaultFreeThrowLookahead = 4
)

// Config tunes the attribution heuristics
type Config struct {
	ReboundLookback    int
	FreeThrowLookahead int

	// OffensiveReboundAfterFTChanges ends the shooting team's possession
	// even when it recovers its own missed final free throw.
	OffensiveReboundAfterFTChanges bool
}

// DefaultConfig returns the standard window sizes
func DefaultConfig() Config {
	return Config{
		ReboundLookback:    DefaultReboundLookback,
		FreeThrowLookahead: DefaultFreeThrowLookahead,
	}
}

// Tracker converts an ordered event list into possessions. A Tracker
// holds only configuration and may be reused across games.
type Tracker struct {
	cfg Config
}

// NewTracker creates a tracker. Non-positive windows fall back to the
// defaults.
func NewTracker(cfg Config) *Tracker {
	if cfg.ReboundLookback <= 0 {
		cfg.ReboundLookback = DefaultReboundLookback
	}
	if cfg.FreeThrowLookahead <= 0 {
		cfg.FreeThrowLookahead = DefaultFreeThrowLookahead
	}
	return &Tracker{cfg: cfg}
}

// Track runs the default tracker and returns only the possessions
func Track(events []pbp.PlayEvent, homeTeamID, awayTeamID int) []Possession {
	return NewTracker(DefaultConfig()).Track(events, homeTeamID, awayTeamID).Possessions
}

// builder accumulates the open possession until it is closed
type builder struct {
	number       int
	teamID       int
	startPeriod  int
	startClock   string
	startElapsed int
	eventIndexes []int
}

func openAt(number, teamID int, ev pbp.PlayEvent) *builder {
	return &builder{
		number:       number,
		teamID:       teamID,
		startPeriod:  ev.Period,
		startClock:   ev.TimeRemaining,
		startElapsed: ev.TimeElapsedSeconds,
	}
}

func (b *builder) close(events []pbp.PlayEvent, end pbp.PlayEvent, outcome Outcome) Possession {
	owned := make([]pbp.PlayEvent, 0, len(b.eventIndexes))
	ids := make([]int, 0, len(b.eventIndexes))
	for _, idx := range b.eventIndexes {
		owned = append(owned, events[idx])
		ids = append(ids, events[idx].EventID)
	}

	period, clock, elapsed := end.Period, end.TimeRemaining, end.TimeElapsedSeconds
	return Possession{
		PossessionNumber:    b.number,
		TeamID:              b.teamID,
		StartPeriod:         b.startPeriod,
		StartTimeRemaining:  b.startClock,
		StartSecondsElapsed: b.startElapsed,
		EndPeriod:           &period,
		EndTimeRemaining:    &clock,
		EndSecondsElapsed:   &elapsed,
		Outcome:             outcome,
		PointsScored:        Points(owned),
		EventIDs:            ids,
	}
}

// scan carries the per-game state of one Track call
type scan struct {
	cfg    Config
	events []pbp.PlayEvent
	home   int
	away   int
	audit  Audit

	// rebounds already credited by a missed final free throw. The
	// possession change happened at the free throw, so a consumed rebound
	// opens the rebounding team's possession instead of closing one.
	consumed map[int]bool
}

// Track partitions events into possessions. Events must already be
// ordered by (period, event order). An empty input yields no possessions.
func (t *Tracker) Track(events []pbp.PlayEvent, homeTeamID, awayTeamID int) *Result {
	result := &Result{Possessions: []Possession{}}
	if len(events) == 0 {
		return result
	}

	s := &scan{
		cfg:      t.cfg,
		events:   events,
		home:     homeTeamID,
		away:     awayTeamID,
		consumed: make(map[int]bool),
	}

	next := 1
	open := openAt(next, homeTeamID, events[0])
	next++

	for i, ev := range events {
		if !ev.HasTeam() {
			s.audit.EventsMissingTeam++
		}

		// Every close opens the next possession immediately, so open is
		// only nil if that invariant breaks. Kept as a guard.
		if open == nil {
			team := ev.TeamID
			if team == 0 {
				team = homeTeamID
			}
			open = openAt(next, team, ev)
			next++
		}

		open.eventIndexes = append(open.eventIndexes, i)

		changes, outcome := s.changes(i, open.teamID)
		if !changes {
			continue
		}

		closed := open.close(events, ev, outcome)
		result.Possessions = append(result.Possessions, closed)

		open = openAt(next, s.nextTeam(ev, closed.TeamID), ev)
		next++
	}

	if open != nil {
		result.Possessions = append(result.Possessions, open.close(events, events[len(events)-1], OutcomeGameEnd))
	}

	result.Audit = s.audit
	return result
}

// nextTeam picks the team gaining the ball after a change triggered by ev
func (s *scan) nextTeam(ev pbp.PlayEvent, closedTeam int) int {
	if ev.HasTeam() && ev.TeamID != closedTeam {
		return ev.TeamID
	}
	return s.opponent(closedTeam)
}

func (s *scan) opponent(teamID int) int {
	if teamID == s.home {
		return s.away
	}
	return s.home
}
