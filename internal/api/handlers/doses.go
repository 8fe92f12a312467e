package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/violetdestiny/PILLPAL-Backend/internal/api/middleware"
	"github.com/violetdestiny/PILLPAL-Backend/internal/medication"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

// DayGroup is one calendar day of dose history.
type DayGroup struct {
	Date  string                      `json:"date"`
	Doses []models.DoseWithMedication `json:"doses"`
}

// DoseHistory returns the user's past dose instances grouped by day, newest
// day first. Order within a day follows the query's descending sort.
func DoseHistory(doses *storage.DoseRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)

		list, err := doses.HistoryByUser(ctx, userID, time.Now().UTC())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query history")
			return
		}

		groups := make([]DayGroup, 0)
		for _, d := range list {
			date := d.ScheduledAt.Format("2006-01-02")
			if len(groups) == 0 || groups[len(groups)-1].Date != date {
				groups = append(groups, DayGroup{Date: date})
			}
			last := &groups[len(groups)-1]
			last.Doses = append(last.Doses, d)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(groups)
	}
}

// CalendarDay returns the user's dose instances scheduled on one date.
func CalendarDay(doses *storage.DoseRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserID(ctx)

		dayStart, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "date must be YYYY-MM-DD")
			return
		}

		list, err := doses.ListByUserAndDay(ctx, userID, dayStart)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query doses")
			return
		}
		if list == nil {
			list = []models.DoseWithMedication{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

// MarkDoseRequest is the request body for app-side dose status writes.
type MarkDoseRequest struct {
	InstanceID string `json:"instance_id"`
	Status     string `json:"status,omitempty"`
}

// MarkTaken marks a dose instance as taken from the app.
func MarkTaken(manager *medication.Manager) http.HandlerFunc {
	return markDose(manager, func(req MarkDoseRequest) string { return models.DoseTaken })
}

// UpdateDose sets a dose instance's status from the app.
func UpdateDose(manager *medication.Manager) http.HandlerFunc {
	return markDose(manager, func(req MarkDoseRequest) string { return req.Status })
}

func markDose(manager *medication.Manager, status func(MarkDoseRequest) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req MarkDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.InstanceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "instance_id is required")
			return
		}

		if err := manager.MarkDose(ctx, req.InstanceID, status(req), models.SourceApp); err != nil {
			writeManagerError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
