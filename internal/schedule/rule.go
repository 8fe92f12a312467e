// Package schedule implements recurrence rules and their expansion into
// concrete dose occurrences. It is pure: no I/O, no clock access beyond the
// reference date callers pass in.
package schedule

import (
	"fmt"
	"time"
)

// Repeat kind constants.
const (
	RepeatDaily  = "daily"  // every day
	RepeatWeekly = "weekly" // days selected by a 7-char Monday-indexed mask
	RepeatOnce   = "once"   // a single date (custom start)
	RepeatCustom = "custom" // an inclusive date range
)

// HorizonDays is the fixed forward window over which occurrences are
// materialized, applied uniformly to schedule create and edit.
const HorizonDays = 30

// ValidationError describes a malformed schedule spec, rejected before any
// persistence happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Rule is a validated recurrence rule. Only the fields required by the
// repeat kind are meaningful.
type Rule struct {
	RepeatType  string
	DayMask     string     // weekly
	CustomStart *time.Time // once, custom
	CustomEnd   *time.Time // custom
}

// Spec is the wire shape of a schedule specification as submitted by
// clients. Parse validates it once at the boundary so the expander never
// sees an ill-formed rule.
type Spec struct {
	RepeatType  string   `json:"repeat_type"`
	DayMask     string   `json:"day_mask,omitempty"`
	Times       []string `json:"times"`
	CustomStart string   `json:"custom_start,omitempty"`
	CustomEnd   string   `json:"custom_end,omitempty"`
	LeadMinutes int      `json:"lead_minutes,omitempty"`
}

// Parse validates the spec and returns the rule plus the normalized
// times-of-day in submission order.
func (s Spec) Parse() (Rule, []string, error) {
	rule := Rule{RepeatType: s.RepeatType}

	switch s.RepeatType {
	case RepeatDaily:
		// No extra fields.

	case RepeatWeekly:
		if len(s.DayMask) != 7 {
			return Rule{}, nil, &ValidationError{Field: "day_mask", Reason: "must be exactly 7 characters"}
		}
		for _, c := range s.DayMask {
			if c != '0' && c != '1' {
				return Rule{}, nil, &ValidationError{Field: "day_mask", Reason: "must contain only '0' and '1'"}
			}
		}
		rule.DayMask = s.DayMask

	case RepeatOnce:
		start, err := parseDate(s.CustomStart)
		if err != nil {
			return Rule{}, nil, &ValidationError{Field: "custom_start", Reason: "required date (YYYY-MM-DD)"}
		}
		rule.CustomStart = &start

	case RepeatCustom:
		start, err := parseDate(s.CustomStart)
		if err != nil {
			return Rule{}, nil, &ValidationError{Field: "custom_start", Reason: "required date (YYYY-MM-DD)"}
		}
		end, err := parseDate(s.CustomEnd)
		if err != nil {
			return Rule{}, nil, &ValidationError{Field: "custom_end", Reason: "required date (YYYY-MM-DD)"}
		}
		if end.Before(start) {
			return Rule{}, nil, &ValidationError{Field: "custom_end", Reason: "must not be before custom_start"}
		}
		rule.CustomStart = &start
		rule.CustomEnd = &end

	default:
		return Rule{}, nil, &ValidationError{Field: "repeat_type", Reason: "must be one of daily, weekly, once, custom"}
	}

	if s.LeadMinutes < 0 {
		return Rule{}, nil, &ValidationError{Field: "lead_minutes", Reason: "must not be negative"}
	}

	times := make([]string, 0, len(s.Times))
	for _, t := range s.Times {
		if _, _, err := ParseHHMM(t); err != nil {
			return Rule{}, nil, &ValidationError{Field: "times", Reason: fmt.Sprintf("%q is not a valid HH:MM time", t)}
		}
		times = append(times, t)
	}

	return rule, times, nil
}

// ParseHHMM parses a wall-clock "HH:MM" value.
func ParseHHMM(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
