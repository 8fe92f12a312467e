// Package config loads server configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the server.
type Config struct {
	// HTTP
	Addr string

	// Data directory for the SQLite database file.
	DataDir string

	// Auth
	JWTSecret string

	// MQTT device signalling. Empty broker disables publishing.
	MQTTBroker      string
	MQTTTopicPrefix string

	// Scanner
	ScanInterval time.Duration
	TickTimeout  time.Duration
}

// Load reads configuration from the environment, after loading a .env file
// if one is present in the working directory.
func Load() Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Addr:            getenv("ADDR", ":8080"),
		DataDir:         getenv("DATA_DIR", "./data"),
		JWTSecret:       getenv("JWT_SECRET", "super_secret_key123"),
		MQTTBroker:      getenv("MQTT_BROKER", ""),
		MQTTTopicPrefix: getenv("MQTT_TOPIC_PREFIX", "pillpal/device"),
		ScanInterval:    getdur("SCAN_INTERVAL", time.Minute),
		TickTimeout:     getdur("TICK_TIMEOUT", 30*time.Second),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
