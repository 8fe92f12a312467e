package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeAlertRaised       MessageType = "alert.raised"
	TypeAlertCleared      MessageType = "alert.cleared"
	TypeDoseStatusChanged MessageType = "dose.status_changed"
	TypeMedicationChanged MessageType = "medication.changed"
	TypeSettingsChanged   MessageType = "settings.changed"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong MessageType = "pong"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertPayload is the payload for alert.raised and alert.cleared events.
type AlertPayload struct {
	DeviceID    string    `json:"device_id"`
	InstanceID  string    `json:"instance_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at,omitempty"`
}

// DoseStatusPayload is the payload for dose.status_changed events.
type DoseStatusPayload struct {
	InstanceID     string `json:"instance_id"`
	MedID          string `json:"med_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Source         string `json:"source"`
}

// MedicationPayload is the payload for medication.changed events.
type MedicationPayload struct {
	MedID  string `json:"med_id"`
	Action string `json:"action"` // created, updated, deleted
}

// SettingsPayload is the payload for settings.changed events.
type SettingsPayload struct {
	UserID    string `json:"user_id"`
	Sound     bool   `json:"sound"`
	Vibration bool   `json:"vibration"`
	LED       bool   `json:"led"`
}
