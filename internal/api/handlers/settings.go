package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/violetdestiny/PILLPAL-Backend/internal/api/middleware"
	"github.com/violetdestiny/PILLPAL-Backend/internal/notify"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
	ws "github.com/violetdestiny/PILLPAL-Backend/internal/websocket"
)

// SettingsRequest is the request body for notification preference updates.
// Omitted fields keep their current value.
type SettingsRequest struct {
	SoundEnabled     *bool `json:"sound_enabled,omitempty"`
	VibrationEnabled *bool `json:"vibration_enabled,omitempty"`
	LEDEnabled       *bool `json:"led_enabled,omitempty"`
}

// GetSettings returns the authenticated user's notification preferences,
// falling back to defaults if none were ever saved.
func GetSettings(settings *storage.SettingsRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)

		prefs, err := settings.GetByUser(ctx, userID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query settings")
			return
		}
		if prefs == nil {
			prefs = models.DefaultNotificationSettings(userID)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prefs)
	}
}

// UpdateSettings upserts the authenticated user's notification preferences
// and pushes the changed channels to the user's paired device. The database
// write is authoritative; a failed device push is logged only.
func UpdateSettings(
	settings *storage.SettingsRepository,
	devices *storage.DeviceRepository,
	publisher notify.Publisher,
	hub *ws.Hub,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)

		var req SettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		prefs, err := settings.GetByUser(ctx, userID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query settings")
			return
		}
		if prefs == nil {
			prefs = models.DefaultNotificationSettings(userID)
		}

		if req.SoundEnabled != nil {
			prefs.SoundEnabled = *req.SoundEnabled
		}
		if req.VibrationEnabled != nil {
			prefs.VibrationEnabled = *req.VibrationEnabled
		}
		if req.LEDEnabled != nil {
			prefs.LEDEnabled = *req.LEDEnabled
		}

		if err := settings.Upsert(ctx, prefs); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update settings")
			return
		}

		pushPreferences(ctx, devices, publisher, userID, req, prefs)

		if hub != nil {
			ws.NewEventBroadcaster(hub).BroadcastSettingsChanged(
				userID, prefs.SoundEnabled, prefs.VibrationEnabled, prefs.LEDEnabled)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prefs)
	}
}

// pushPreferences publishes one command per channel the request touched.
func pushPreferences(
	ctx context.Context,
	devices *storage.DeviceRepository,
	publisher notify.Publisher,
	userID string,
	req SettingsRequest,
	prefs *models.NotificationSettings,
) {
	deviceID, err := devices.GetDeviceForUser(ctx, userID)
	if err != nil {
		log.Printf("Failed to resolve device for user %s: %v", userID, err)
		return
	}
	if deviceID == "" {
		return
	}

	commands := make([]string, 0, 3)
	if req.SoundEnabled != nil {
		commands = append(commands, prefCommand(notify.CmdPrefSoundOn, notify.CmdPrefSoundOff, prefs.SoundEnabled))
	}
	if req.VibrationEnabled != nil {
		commands = append(commands, prefCommand(notify.CmdPrefVibrationOn, notify.CmdPrefVibrationOff, prefs.VibrationEnabled))
	}
	if req.LEDEnabled != nil {
		commands = append(commands, prefCommand(notify.CmdPrefLEDOn, notify.CmdPrefLEDOff, prefs.LEDEnabled))
	}

	for _, cmd := range commands {
		if err := publisher.Publish(deviceID, cmd); err != nil {
			log.Printf("Failed to push %s to device %s: %v", cmd, deviceID, err)
		}
	}
}

func prefCommand(on, off string, enabled bool) string {
	if enabled {
		return on
	}
	return off
}
