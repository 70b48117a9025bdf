// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// RedisURL is the Redis connection string for the itinerary cache pool.
	// Defaults to "redis://localhost:6379/0".
	RedisURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// AIBaseURL is the base URL of the OpenAI-compatible chat completion API
	// used for itinerary generation. Defaults to "https://api.openai.com/v1".
	AIBaseURL string

	// AIAPIKey authenticates requests to the generation API. Required.
	AIAPIKey string

	// AIModel is the model name sent with each generation request.
	// Defaults to "gpt-4o-mini".
	AIModel string

	// AITimeout bounds a single generation round trip. Defaults to 45s.
	// Set AI_TIMEOUT_SECONDS to override.
	AITimeout time.Duration

	// FreeRegenerations is the number of full regenerations each trip may
	// consume. Defaults to 3. Set FREE_REGENERATIONS to override.
	FreeRegenerations int

	// MaxBodyBytes caps the size of accepted request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		AIBaseURL:   getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIModel:     getEnv("AI_MODEL", "gpt-4o-mini"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AIAPIKey = os.Getenv("AI_API_KEY")
	if cfg.AIAPIKey == "" {
		missing = append(missing, "AI_API_KEY")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	timeoutSeconds, err := getEnvInt("AI_TIMEOUT_SECONDS", 45)
	if err != nil {
		return Config{}, err
	}
	cfg.AITimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.FreeRegenerations, err = getEnvInt("FREE_REGENERATIONS", 3)
	if err != nil {
		return Config{}, err
	}

	maxBody, err := getEnvInt("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses the environment variable named by key as a positive integer,
// or returns fallback if the variable is not set or is empty.
func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
