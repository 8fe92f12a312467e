package models

import (
	"time"
)

// DevicePairing links a physical device identifier to a user account.
// Lookups assume at most one active pairing per device and take the first
// match if that assumption is violated.
type DevicePairing struct {
	DeviceID string    `json:"device_id"`
	UserID   string    `json:"user_id"`
	Active   bool      `json:"active"`
	PairedAt time.Time `json:"paired_at"`
}

// DeviceEvent is an append-only log entry reported by a device
// (button presses, lid open, connectivity and the like).
type DeviceEvent struct {
	ID        string    `json:"event_id"`
	DeviceID  string    `json:"device_id"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// CompartmentAssignment maps a medication to a physical compartment on a
// pillbox device.
type CompartmentAssignment struct {
	MedID       string    `json:"med_id"`
	DeviceID    string    `json:"device_id"`
	Compartment int       `json:"compartment"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationSettings are a user's per-channel alerting preferences,
// mirrored to the paired device when changed.
type NotificationSettings struct {
	UserID           string    `json:"user_id"`
	SoundEnabled     bool      `json:"sound_enabled"`
	VibrationEnabled bool      `json:"vibration_enabled"`
	LEDEnabled       bool      `json:"led_enabled"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultNotificationSettings returns the defaults used when a user has not
// saved preferences yet: all channels enabled.
func DefaultNotificationSettings(userID string) *NotificationSettings {
	return &NotificationSettings{
		UserID:           userID,
		SoundEnabled:     true,
		VibrationEnabled: true,
		LEDEnabled:       true,
	}
}
