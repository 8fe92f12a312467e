package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/violetdestiny/PILLPAL-Backend/internal/api/middleware"
	"github.com/violetdestiny/PILLPAL-Backend/internal/medication"
	"github.com/violetdestiny/PILLPAL-Backend/internal/schedule"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

// MedicationRequest is the request body for create and update.
type MedicationRequest struct {
	Name     string        `json:"name"`
	Notes    *string       `json:"notes,omitempty"`
	Schedule schedule.Spec `json:"schedule"`
}

// ScheduleResponse is the schedule read-back embedded in medication responses.
type ScheduleResponse struct {
	RepeatType  string   `json:"repeat_type"`
	DayMask     *string  `json:"day_mask,omitempty"`
	Times       []string `json:"times"`
	CustomStart *string  `json:"custom_start,omitempty"`
	CustomEnd   *string  `json:"custom_end,omitempty"`
	LeadMinutes int      `json:"lead_minutes"`
}

// MedicationResponse represents a medication with its schedule in API
// responses.
type MedicationResponse struct {
	models.Medication
	Schedule *ScheduleResponse `json:"schedule,omitempty"`
}

// ListMedications returns all medications owned by the authenticated user,
// each with its schedule read-back.
func ListMedications(meds *storage.MedicationRepository, schedules *storage.ScheduleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)

		list, err := meds.ListByUser(ctx, userID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query medications")
			return
		}

		response := make([]MedicationResponse, 0, len(list))
		for _, med := range list {
			sched, err := scheduleReadback(r, schedules, med.ID)
			if err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query schedule")
				return
			}
			response = append(response, MedicationResponse{Medication: med, Schedule: sched})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// GetMedication returns a single medication with its schedule read-back.
func GetMedication(meds *storage.MedicationRepository, schedules *storage.ScheduleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)
		medID := mux.Vars(r)["id"]

		med, err := meds.GetByID(ctx, medID, userID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query medication")
			return
		}
		if med == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Medication not found")
			return
		}

		sched, err := scheduleReadback(r, schedules, med.ID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query schedule")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(MedicationResponse{Medication: *med, Schedule: sched})
	}
}

// CreateMedication registers a medication and materializes its dose
// instances.
func CreateMedication(manager *medication.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)

		var req MedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		medID, err := manager.Create(ctx, userID, medication.Input{
			Name:  req.Name,
			Notes: req.Notes,
			Spec:  req.Schedule,
		})
		if err != nil {
			writeManagerError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"med_id": medID})
	}
}

// UpdateMedication edits a medication and regenerates its future dose
// instances.
func UpdateMedication(manager *medication.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)
		medID := mux.Vars(r)["id"]

		var req MedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		err := manager.Update(ctx, userID, medID, medication.Input{
			Name:  req.Name,
			Notes: req.Notes,
			Spec:  req.Schedule,
		})
		if err != nil {
			writeManagerError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

// DeleteMedication removes a medication and everything hanging off it.
func DeleteMedication(manager *medication.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)
		medID := mux.Vars(r)["id"]

		if err := manager.Delete(ctx, userID, medID); err != nil {
			writeManagerError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

// AssignCompartmentRequest is the request body for compartment assignment.
type AssignCompartmentRequest struct {
	DeviceID    string `json:"device_id"`
	Compartment int    `json:"compartment"`
}

// AssignCompartment maps a medication to a compartment on a device.
func AssignCompartment(meds *storage.MedicationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)
		medID := mux.Vars(r)["id"]

		var req AssignCompartmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.DeviceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "device_id is required")
			return
		}

		med, err := meds.GetByID(ctx, medID, userID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query medication")
			return
		}
		if med == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Medication not found")
			return
		}

		if err := meds.AssignCompartment(ctx, medID, req.DeviceID, req.Compartment); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to assign compartment")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "assigned"})
	}
}

func scheduleReadback(r *http.Request, schedules *storage.ScheduleRepository, medID string) (*ScheduleResponse, error) {
	ctx := r.Context()

	rule, err := schedules.GetRuleByMed(ctx, schedules.DB(), medID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, nil
	}

	medTimes, err := schedules.ListTimes(ctx, schedules.DB(), rule.ID)
	if err != nil {
		return nil, err
	}

	times := make([]string, 0, len(medTimes))
	for _, t := range medTimes {
		times = append(times, t.HHMM)
	}

	return &ScheduleResponse{
		RepeatType:  rule.RepeatType,
		DayMask:     rule.DayMask,
		Times:       times,
		CustomStart: formatDate(rule.CustomStart),
		CustomEnd:   formatDate(rule.CustomEnd),
		LeadMinutes: rule.LeadMinutes,
	}, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// writeManagerError maps schedule manager errors to HTTP responses.
func writeManagerError(w http.ResponseWriter, err error) {
	var vErr *schedule.ValidationError
	switch {
	case errors.As(err, &vErr):
		middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, vErr.Error(),
			map[string]string{"field": vErr.Field})
	case errors.Is(err, medication.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Medication not found")
	case errors.Is(err, medication.ErrDoseNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Dose instance not found")
	default:
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Operation failed")
	}
}
