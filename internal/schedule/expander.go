package schedule

import (
	"time"
)

// Expand materializes a recurrence rule into concrete occurrence timestamps
// over horizonDays days starting at the date of from, inclusive. Each
// included day is crossed with every time-of-day entry in the given order,
// so the result is ordered by day first and submission order second.
//
// Unknown repeat kinds and empty times lists yield no occurrences. Times
// that fail to parse are skipped; Spec.Parse rejects them up front on the
// API path.
func Expand(rule Rule, times []string, horizonDays int, from time.Time) []time.Time {
	if len(times) == 0 || horizonDays <= 0 {
		return nil
	}

	start := DateOf(from)

	var out []time.Time
	for i := 0; i < horizonDays; i++ {
		day := start.AddDate(0, 0, i)
		if !rule.includes(day) {
			continue
		}

		for _, hhmm := range times {
			hour, minute, err := ParseHHMM(hhmm)
			if err != nil {
				continue
			}
			out = append(out, time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()))
		}
	}

	return out
}

// includes reports whether the rule selects the given day.
func (r Rule) includes(day time.Time) bool {
	switch r.RepeatType {
	case RepeatDaily:
		return true

	case RepeatWeekly:
		if len(r.DayMask) != 7 {
			return false
		}
		return r.DayMask[mondayIndex(day.Weekday())] == '1'

	case RepeatOnce:
		return r.CustomStart != nil && sameDate(day, *r.CustomStart)

	case RepeatCustom:
		if r.CustomStart == nil || r.CustomEnd == nil {
			return false
		}
		start := DateOf(*r.CustomStart)
		end := DateOf(*r.CustomEnd)
		return !day.Before(start) && !day.After(end)

	default:
		// Unknown repeat kinds produce no occurrences rather than an error.
		return false
	}
}

// DateOf truncates a timestamp to midnight of its day, preserving location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// mondayIndex maps a weekday to the Monday-indexed mask position
// (Monday=0 .. Sunday=6).
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
