// Package models defines the persisted entities of the medication scheduler.
package models

import (
	"time"
)

// Medication represents a medication registered by a user, together with its
// active window. The schedule rule, times-of-day and dose instances hang off
// it and are removed when it is deleted.
type Medication struct {
	ID        string     `json:"med_id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Notes     *string    `json:"notes,omitempty"`
	StartDate time.Time  `json:"active_start_date"`
	EndDate   *time.Time `json:"active_end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ScheduleRule is the recurrence policy for one medication. RepeatType
// holds one of the schedule package's repeat kind constants.
type ScheduleRule struct {
	ID          string     `json:"rule_id"`
	MedID       string     `json:"med_id"`
	RepeatType  string     `json:"repeat_type"`
	DayMask     *string    `json:"day_mask,omitempty"`
	CustomStart *time.Time `json:"custom_start,omitempty"`
	CustomEnd   *time.Time `json:"custom_end,omitempty"`
	LeadMinutes int        `json:"lead_minutes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MedTime is one wall-clock time-of-day entry on a schedule rule.
// SortOrder preserves the order times were submitted in.
type MedTime struct {
	RuleID    string `json:"rule_id"`
	HHMM      string `json:"hhmm"`
	SortOrder int    `json:"sort_order"`
}
