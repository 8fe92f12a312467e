package models

import (
	"time"
)

// Dose instance status constants. Taken and missed are terminal.
const (
	DoseScheduled = "scheduled"
	DoseTaken     = "taken"
	DoseMissed    = "missed"
)

// Dose event source constants.
const (
	SourceApp    = "app"
	SourceDevice = "device"
)

// DoseInstance is one concrete expected intake event, generated by expanding
// a schedule rule over the forward horizon. Instances are never authored
// directly; schedule create/update is the only producer.
type DoseInstance struct {
	ID          string    `json:"instance_id"`
	MedID       string    `json:"med_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsTerminal reports whether the instance has reached a terminal status.
func (d *DoseInstance) IsTerminal() bool {
	return d.Status == DoseTaken || d.Status == DoseMissed
}

// DoseEvent is an append-only audit record for a dose instance status change.
// It is advisory only and never read back for scheduling decisions.
type DoseEvent struct {
	ID         string    `json:"event_id"`
	InstanceID string    `json:"instance_id"`
	EventType  string    `json:"event_type"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// DoseWithMedication is a dose instance joined with the name of its
// medication, used by history and calendar reads.
type DoseWithMedication struct {
	InstanceID  string    `json:"instance_id"`
	MedID       string    `json:"med_id"`
	Name        string    `json:"name"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
}

// DueDose is a scheduled dose instance joined to the device paired with the
// owning user, as returned by the scanner's due query.
type DueDose struct {
	InstanceID  string    `json:"instance_id"`
	MedID       string    `json:"med_id"`
	UserID      string    `json:"user_id"`
	DeviceID    string    `json:"device_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
