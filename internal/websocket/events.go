package websocket

import (
	"log"
	"time"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastAlertRaised sends an alert.raised event for a device.
func (b *EventBroadcaster) BroadcastAlertRaised(deviceID, instanceID string, scheduledAt time.Time) {
	msg := NewMessage(TypeAlertRaised, AlertPayload{
		DeviceID:    deviceID,
		InstanceID:  instanceID,
		ScheduledAt: scheduledAt,
	})
	b.broadcast(msg)
}

// BroadcastAlertCleared sends an alert.cleared event for a device.
func (b *EventBroadcaster) BroadcastAlertCleared(deviceID string) {
	msg := NewMessage(TypeAlertCleared, AlertPayload{DeviceID: deviceID})
	b.broadcast(msg)
}

// BroadcastDoseStatusChanged sends a dose.status_changed event.
func (b *EventBroadcaster) BroadcastDoseStatusChanged(instanceID, medID, previousStatus, newStatus, source string) {
	msg := NewMessage(TypeDoseStatusChanged, DoseStatusPayload{
		InstanceID:     instanceID,
		MedID:          medID,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
		Source:         source,
	})
	b.broadcast(msg)
}

// BroadcastMedicationChanged sends a medication.changed event.
func (b *EventBroadcaster) BroadcastMedicationChanged(medID, action string) {
	msg := NewMessage(TypeMedicationChanged, MedicationPayload{
		MedID:  medID,
		Action: action,
	})
	b.broadcast(msg)
}

// BroadcastSettingsChanged sends a settings.changed event.
func (b *EventBroadcaster) BroadcastSettingsChanged(userID string, sound, vibration, led bool) {
	msg := NewMessage(TypeSettingsChanged, SettingsPayload{
		UserID:    userID,
		Sound:     sound,
		Vibration: vibration,
		LED:       led,
	})
	b.broadcast(msg)
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
