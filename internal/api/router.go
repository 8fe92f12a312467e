// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/violetdestiny/PILLPAL-Backend/internal/alert"
	"github.com/violetdestiny/PILLPAL-Backend/internal/api/handlers"
	"github.com/violetdestiny/PILLPAL-Backend/internal/api/middleware"
	"github.com/violetdestiny/PILLPAL-Backend/internal/medication"
	"github.com/violetdestiny/PILLPAL-Backend/internal/notify"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/websocket"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	DB        *storage.DB
	Meds      *storage.MedicationRepository
	Schedules *storage.ScheduleRepository
	Doses     *storage.DoseRepository
	Devices   *storage.DeviceRepository
	Settings  *storage.SettingsRepository
	Manager   *medication.Manager
	Gateway   *alert.Gateway
	Publisher notify.Publisher
	Hub       *websocket.Hub
	JWTSecret string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and event stream
	api.HandleFunc("/health", handlers.HealthCheck(deps.DB)).Methods("GET")
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(deps.Hub)).Methods("GET")

	// Device-facing endpoints, keyed by device or instance ID
	api.HandleFunc("/device/alert_status", handlers.AlertStatus(deps.Gateway)).Methods("GET")
	api.HandleFunc("/device/poll", handlers.DevicePoll(deps.Gateway)).Methods("GET")
	api.HandleFunc("/device/ack", handlers.DeviceAck(deps.Gateway)).Methods("POST")
	api.HandleFunc("/device/stop_alert", handlers.StopAlert(deps.Gateway)).Methods("POST")
	api.HandleFunc("/device/ack_open", handlers.AckOpen(deps.Gateway)).Methods("POST")
	api.HandleFunc("/device/event", handlers.DeviceEvent(deps.Gateway)).Methods("POST")

	// App-facing endpoints behind bearer-token auth
	app := api.NewRoute().Subrouter()
	app.Use(middleware.Auth(deps.JWTSecret))

	app.HandleFunc("/medications", handlers.ListMedications(deps.Meds, deps.Schedules)).Methods("GET")
	app.HandleFunc("/medications", handlers.CreateMedication(deps.Manager)).Methods("POST")
	app.HandleFunc("/medications/history", handlers.DoseHistory(deps.Doses)).Methods("GET")
	app.HandleFunc("/medications/{id}", handlers.GetMedication(deps.Meds, deps.Schedules)).Methods("GET")
	app.HandleFunc("/medications/{id}", handlers.UpdateMedication(deps.Manager)).Methods("PUT")
	app.HandleFunc("/medications/{id}", handlers.DeleteMedication(deps.Manager)).Methods("DELETE")
	app.HandleFunc("/medications/{id}/compartment", handlers.AssignCompartment(deps.Meds)).Methods("POST")

	app.HandleFunc("/calendar/day", handlers.CalendarDay(deps.Doses)).Methods("GET")

	app.HandleFunc("/dose/mark_taken", handlers.MarkTaken(deps.Manager)).Methods("POST")
	app.HandleFunc("/dose/update", handlers.UpdateDose(deps.Manager)).Methods("POST")

	app.HandleFunc("/settings", handlers.GetSettings(deps.Settings)).Methods("GET")
	app.HandleFunc("/settings/update", handlers.UpdateSettings(deps.Settings, deps.Devices, deps.Publisher, deps.Hub)).Methods("POST")

	app.HandleFunc("/device/pair", handlers.PairDevice(deps.Devices)).Methods("POST")
	app.HandleFunc("/device/unpair", handlers.UnpairDevice(deps.Devices)).Methods("POST")

	return r
}
