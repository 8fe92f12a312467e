// Package main is the entry point for the PILLPAL backend server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/violetdestiny/PILLPAL-Backend/internal/alert"
	"github.com/violetdestiny/PILLPAL-Backend/internal/api"
	"github.com/violetdestiny/PILLPAL-Backend/internal/config"
	"github.com/violetdestiny/PILLPAL-Backend/internal/medication"
	"github.com/violetdestiny/PILLPAL-Backend/internal/metrics"
	"github.com/violetdestiny/PILLPAL-Backend/internal/notify"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg := config.Load()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting PILLPAL backend (version: %s)...", version)

	metrics.MustRegister()

	// Initialize database
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", cfg.DataDir, err)
	}
	dbPath := cfg.DataDir + "/pillpal.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	medRepo := storage.NewMedicationRepository(db)
	scheduleRepo := storage.NewScheduleRepository(db)
	doseRepo := storage.NewDoseRepository(db)
	deviceRepo := storage.NewDeviceRepository(db)
	settingsRepo := storage.NewSettingsRepository(db)

	// Device publisher; without a broker commands are dropped
	var publisher notify.Publisher = notify.NopPublisher{}
	if cfg.MQTTBroker != "" {
		mqttPub, err := notify.NewMQTTPublisher(cfg.MQTTBroker, "pillpal-backend", cfg.MQTTTopicPrefix)
		if err != nil {
			log.Printf("Warning: MQTT disabled: %v", err)
		} else {
			defer mqttPub.Close()
			publisher = mqttPub
		}
	}

	// Initialize services
	manager := medication.NewManager(db, medRepo, scheduleRepo, doseRepo, hub)
	alertState := alert.NewState()
	gateway := alert.NewGateway(deviceRepo, doseRepo, settingsRepo, alertState, manager, hub)
	scanner := alert.NewScanner(doseRepo, alertState, publisher, hub, cfg.ScanInterval, cfg.TickTimeout)

	if err := scanner.Start(); err != nil {
		log.Fatalf("Failed to start alert scanner: %v", err)
	}

	// Initialize HTTP router
	router := api.NewRouter(api.Deps{
		DB:        db,
		Meds:      medRepo,
		Schedules: scheduleRepo,
		Doses:     doseRepo,
		Devices:   deviceRepo,
		Settings:  settingsRepo,
		Manager:   manager,
		Gateway:   gateway,
		Publisher: publisher,
		Hub:       hub,
		JWTSecret: cfg.JWTSecret,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scanner.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
