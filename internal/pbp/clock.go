package pbp

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// RegulationPeriods is the number of quarters before overtime
	RegulationPeriods = 4
	// QuarterSeconds is the length of a regulation quarter
	QuarterSeconds = 12 * 60
	// OvertimeSeconds is the length of an overtime period
	OvertimeSeconds = 5 * 60
)

// PeriodLength returns the length in seconds of the given period
func PeriodLength(period int) int {
	if period > RegulationPeriods {
		return OvertimeSeconds
	}
	return QuarterSeconds
}

// ParseClock converts a game clock into seconds remaining in the period.
// Accepts the ISO-8601 form used by the feed ("PT11M42.00S") and the
// display form ("11:42", "42.3").
func ParseClock(clock string) (float64, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return 0, fmt.Errorf("empty clock")
	}

	upper := strings.ToUpper(clock)
	if strings.HasPrefix(upper, "PT") {
		body := strings.TrimPrefix(upper, "PT")
		var minutes, seconds float64
		if idx := strings.Index(body, "M"); idx >= 0 {
			m, err := strconv.ParseFloat(body[:idx], 64)
			if err != nil {
				return 0, fmt.Errorf("parse clock minutes %q: %w", clock, err)
			}
			minutes = m
			body = body[idx+1:]
		}
		body = strings.TrimSuffix(body, "S")
		if body != "" {
			s, err := strconv.ParseFloat(body, 64)
			if err != nil {
				return 0, fmt.Errorf("parse clock seconds %q: %w", clock, err)
			}
			seconds = s
		}
		return minutes*60 + seconds, nil
	}

	if strings.Contains(clock, ":") {
		parts := strings.SplitN(clock, ":", 2)
		m, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("parse clock minutes %q: %w", clock, err)
		}
		s, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("parse clock seconds %q: %w", clock, err)
		}
		return float64(m)*60 + s, nil
	}

	s, err := strconv.ParseFloat(clock, 64)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return s, nil
}

// ElapsedSeconds converts a clock reading into whole seconds elapsed in
// the period. Fractional seconds remaining round toward the earlier
// instant.
func ElapsedSeconds(period int, clock string) (int, error) {
	remaining, err := ParseClock(clock)
	if err != nil {
		return 0, err
	}
	length := PeriodLength(period)
	elapsed := length - int(remaining+0.999)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > length {
		elapsed = length
	}
	return elapsed, nil
}

// DisplayClock renders seconds remaining as MM:SS
func DisplayClock(period, elapsed int) string {
	remaining := PeriodLength(period) - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("%d:%02d", remaining/60, remaining%60)
}
