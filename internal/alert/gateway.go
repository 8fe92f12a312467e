package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/violetdestiny/PILLPAL-Backend/internal/medication"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
	"github.com/violetdestiny/PILLPAL-Backend/internal/websocket"
)

// Status is the alert view returned to a polling device.
type Status struct {
	ShouldAlert bool       `json:"should_alert"`
	Sound       bool       `json:"sound"`
	Vibration   bool       `json:"vibration"`
	LED         bool       `json:"led"`
	InstanceID  string     `json:"instance_id,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// PollResult combines the in-memory alert flag with the owning user's
// notification preferences.
type PollResult struct {
	Alert     bool `json:"alert"`
	Sound     bool `json:"sound"`
	Vibration bool `json:"vibration"`
	LED       bool `json:"led"`
}

// Gateway serves the device-facing alert surface: poll resolution and
// terminal-state acknowledgements.
type Gateway struct {
	devices     *storage.DeviceRepository
	doses       *storage.DoseRepository
	settings    *storage.SettingsRepository
	state       *State
	manager     *medication.Manager
	broadcaster *websocket.EventBroadcaster
	now         func() time.Time
}

// NewGateway creates a device alert gateway. The hub may be nil.
func NewGateway(
	devices *storage.DeviceRepository,
	doses *storage.DoseRepository,
	settings *storage.SettingsRepository,
	state *State,
	manager *medication.Manager,
	hub *websocket.Hub,
) *Gateway {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Gateway{
		devices:     devices,
		doses:       doses,
		settings:    settings,
		state:       state,
		manager:     manager,
		broadcaster: broadcaster,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AlertStatus resolves whether a device should be alerting right now. The
// device maps to a user via its active pairing; the user's earliest dose
// instance determines the answer: alerting iff it is still scheduled and its
// time has passed. All channel flags mirror should_alert so an unconfigured
// device alerts on every channel it has.
func (g *Gateway) AlertStatus(ctx context.Context, deviceID string) (*Status, error) {
	userID, err := g.devices.GetUserForDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("resolving device user: %w", err)
	}
	if userID == "" {
		return &Status{}, nil
	}

	dose, err := g.doses.EarliestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving earliest dose: %w", err)
	}
	if dose == nil {
		return &Status{}, nil
	}

	shouldAlert := dose.Status == models.DoseScheduled && !dose.ScheduledAt.After(g.now())

	status := &Status{
		ShouldAlert: shouldAlert,
		Sound:       shouldAlert,
		Vibration:   shouldAlert,
		LED:         shouldAlert,
	}
	if shouldAlert {
		status.InstanceID = dose.ID
		at := dose.ScheduledAt
		status.ScheduledAt = &at
	}

	return status, nil
}

// Poll returns the in-memory alert flag together with the owning user's
// notification preferences. An unpaired device gets defaults and no alert.
func (g *Gateway) Poll(ctx context.Context, deviceID string) (*PollResult, error) {
	result := &PollResult{Alert: g.state.Active(deviceID)}

	userID, err := g.devices.GetUserForDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("resolving device user: %w", err)
	}

	prefs := models.DefaultNotificationSettings(userID)
	if userID != "" {
		stored, err := g.settings.GetByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("loading notification settings: %w", err)
		}
		if stored != nil {
			prefs = stored
		}
	}

	result.Sound = prefs.SoundEnabled
	result.Vibration = prefs.VibrationEnabled
	result.LED = prefs.LEDEnabled

	return result, nil
}

// Ack clears a device's in-memory alert flag.
func (g *Gateway) Ack(ctx context.Context, deviceID string) {
	if g.state.Clear(deviceID) && g.broadcaster != nil {
		g.broadcaster.BroadcastAlertCleared(deviceID)
	}
}

// StopAlert records that the device silenced its alert without the dose
// being taken: the instance is marked missed.
func (g *Gateway) StopAlert(ctx context.Context, instanceID string) error {
	return g.manager.MarkDose(ctx, instanceID, models.DoseMissed, models.SourceDevice)
}

// AckOpen records that the device's compartment was opened: the instance is
// marked taken.
func (g *Gateway) AckOpen(ctx context.Context, instanceID string) error {
	return g.manager.MarkDose(ctx, instanceID, models.DoseTaken, models.SourceDevice)
}

// RecordEvent appends a device event log entry.
func (g *Gateway) RecordEvent(ctx context.Context, deviceID, eventType, source string) error {
	if source == "" {
		source = models.SourceDevice
	}
	return g.devices.InsertEvent(ctx, &models.DeviceEvent{
		DeviceID:  deviceID,
		EventType: eventType,
		Source:    source,
	})
}
