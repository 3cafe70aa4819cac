package lineup

import (
	"sort"
	"strings"

	"github.com/fortuna/courtside/internal/pbp"
)

const (
	subTypeOut = "out"
	subTypeIn  = "in"
)

type subKey struct {
	team    int
	period  int
	elapsed int
}

type subAction struct {
	index int
	event pbp.PlayEvent
}

type subBucket struct {
	outs []subAction
	ins  []subAction
}

// direction resolves whether a substitution action brings a player on or
// off. The feed sets sub type; older payloads only say so in the text.
func direction(ev pbp.PlayEvent) string {
	switch strings.ToLower(strings.TrimSpace(ev.SubType)) {
	case subTypeOut:
		return subTypeOut
	case subTypeIn:
		return subTypeIn
	}

	desc := strings.ToLower(ev.Description)
	switch {
	case strings.HasPrefix(desc, "sub out"):
		return subTypeOut
	case strings.HasPrefix(desc, "sub in"):
		return subTypeIn
	}
	return ""
}

// pairSubstitutions joins the per-player out/in actions recorded at the
// same team and clock into swaps, i-th out with i-th in. Leftover or
// undirected actions are reported as violations.
func pairSubstitutions(events []pbp.PlayEvent) ([]SubstitutionEvent, []Violation) {
	buckets := make(map[subKey]*subBucket)
	var order []subKey
	var violations []Violation

	for i, ev := range events {
		if ev.EventType != pbp.EventSubstitution {
			continue
		}

		key := subKey{team: ev.TeamID, period: ev.Period, elapsed: ev.TimeElapsedSeconds}
		b, ok := buckets[key]
		if !ok {
			b = &subBucket{}
			buckets[key] = b
			order = append(order, key)
		}

		switch direction(ev) {
		case subTypeOut:
			b.outs = append(b.outs, subAction{index: i, event: ev})
		case subTypeIn:
			b.ins = append(b.ins, subAction{index: i, event: ev})
		default:
			violations = append(violations, violationAt(ev, ViolationUnpairedSubstitution, "substitution without direction"))
		}
	}

	type positioned struct {
		index int
		sub   SubstitutionEvent
	}
	var pairs []positioned

	for _, key := range order {
		b := buckets[key]
		n := len(b.outs)
		if len(b.ins) < n {
			n = len(b.ins)
		}
		for i := 0; i < n; i++ {
			out, in := b.outs[i], b.ins[i]
			first := out
			if in.index < out.index {
				first = in
			}
			pairs = append(pairs, positioned{
				index: first.index,
				sub: SubstitutionEvent{
					ActionNumber:   first.event.EventID,
					Period:         first.event.Period,
					Clock:          first.event.TimeRemaining,
					SecondsElapsed: first.event.TimeElapsedSeconds,
					TeamID:         key.team,
					PlayerOutID:    out.event.PlayerID,
					PlayerOutName:  out.event.PlayerName,
					PlayerInID:     in.event.PlayerID,
					PlayerInName:   in.event.PlayerName,
					Description:    describe(out.event, in.event),
				},
			})
		}
		for _, extra := range b.outs[n:] {
			violations = append(violations, violationAt(extra.event, ViolationUnpairedSubstitution, "player out without replacement"))
		}
		for _, extra := range b.ins[n:] {
			violations = append(violations, violationAt(extra.event, ViolationUnpairedSubstitution, "player in without matching out"))
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].index < pairs[j].index })

	subs := make([]SubstitutionEvent, 0, len(pairs))
	for _, p := range pairs {
		subs = append(subs, p.sub)
	}
	return subs, violations
}

func describe(out, in pbp.PlayEvent) string {
	outName, inName := out.PlayerName, in.PlayerName
	if outName == "" || inName == "" {
		return strings.TrimSpace(out.Description + " / " + in.Description)
	}
	return "SUB: " + inName + " FOR " + outName
}
