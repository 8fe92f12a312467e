package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/violetdestiny/PILLPAL-Backend/internal/alert"
	"github.com/violetdestiny/PILLPAL-Backend/internal/api/middleware"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
)

// AlertStatus resolves whether a device should currently be alerting.
func AlertStatus(gateway *alert.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.URL.Query().Get("device_id")
		if deviceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "device_id is required")
			return
		}

		status, err := gateway.AlertStatus(r.Context(), deviceID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to resolve alert status")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

// DevicePoll returns the in-memory alert flag plus notification preferences.
func DevicePoll(gateway *alert.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.URL.Query().Get("device_id")
		if deviceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "device_id is required")
			return
		}

		result, err := gateway.Poll(r.Context(), deviceID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to poll device state")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// DeviceRequest is the request body for device-keyed commands.
type DeviceRequest struct {
	DeviceID   string `json:"device_id,omitempty"`
	InstanceID string `json:"instance_id,omitempty"`
	EventType  string `json:"event_type,omitempty"`
	Source     string `json:"source,omitempty"`
}

// DeviceAck clears a device's in-memory alert flag.
func DeviceAck(gateway *alert.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "device_id is required")
			return
		}

		gateway.Ack(r.Context(), req.DeviceID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// StopAlert records that the device silenced its alert; the dose instance is
// marked missed.
func StopAlert(gateway *alert.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InstanceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "instance_id is required")
			return
		}

		if err := gateway.StopAlert(r.Context(), req.InstanceID); err != nil {
			writeManagerError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// AckOpen records that the device's compartment was opened; the dose
// instance is marked taken.
func AckOpen(gateway *alert.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InstanceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "instance_id is required")
			return
		}

		if err := gateway.AckOpen(r.Context(), req.InstanceID); err != nil {
			writeManagerError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// DeviceEvent appends an entry to the device event log.
func DeviceEvent(gateway *alert.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" || req.EventType == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "device_id and event_type are required")
			return
		}

		if err := gateway.RecordEvent(r.Context(), req.DeviceID, req.EventType, req.Source); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to record device event")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// PairDevice creates or reactivates the pairing between the authenticated
// user and a device.
func PairDevice(devices *storage.DeviceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)

		var req DeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "device_id is required")
			return
		}

		if err := devices.Pair(ctx, req.DeviceID, userID); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to pair device")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "paired"})
	}
}

// UnpairDevice deactivates the pairing between the authenticated user and a
// device.
func UnpairDevice(devices *storage.DeviceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)

		var req DeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "device_id is required")
			return
		}

		if err := devices.Unpair(ctx, req.DeviceID, userID); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to unpair device")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "unpaired"})
	}
}
