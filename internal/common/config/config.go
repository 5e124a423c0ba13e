package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingRequiredEnv = errors.New("missing required environment variable")
	ErrInvalidJWTKey      = errors.New("JWT_KEY must be at least 32 bytes")
	ErrInvalidJWTExpiry   = errors.New("JWT_EXP must be \"never\" or a duration")
)

// Deployment stages. EARLY runs on the volatile in-memory store; DEV and
// PROD require a database. The stage is fixed at startup and never branched
// on afterwards: it only decides which store gets injected.
const (
	StageEarly = "EARLY"
	StageDev   = "DEV"
	StageProd  = "PROD"
)

type Config struct {
	Stage       string
	HTTPPort    string
	DatabaseURL string
	JWTKey      string
	// JWTExpiry is "never" (no exp claim, non-production convenience) or a
	// Go duration string.
	JWTExpiry      string
	LogDir         string
	LogLevel       string
	RequestTimeout time.Duration
	// ResetOnStart clears all stored data at startup, the early-development
	// workflow of the in-memory store. Never honored in PROD.
	ResetOnStart bool
}

// Load reads configuration from the environment, after best-effort loading
// of a local .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	stage := getEnv("STAGE", StageDev)

	cfg := Config{
		Stage:          stage,
		HTTPPort:       getEnv("PORT", "1000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTKey:         getEnv("JWT_KEY", "local-dev-jwt-key-do-not-use-in-prod"),
		JWTExpiry:      getEnv("JWT_EXP", defaultExpiry(stage)),
		LogDir:         os.Getenv("LOG_DIR"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 5*time.Second),
		ResetOnStart:   stage != StageProd,
	}

	if stage == StageProd {
		jwtKey, err := mustEnv("JWT_KEY")
		if err != nil {
			return Config{}, err
		}
		if len(jwtKey) < 32 {
			return Config{}, fmt.Errorf("%w: got %d bytes", ErrInvalidJWTKey, len(jwtKey))
		}
		cfg.JWTKey = jwtKey
	}

	if stage != StageEarly && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("%w: DATABASE_URL", ErrMissingRequiredEnv)
	}

	if err := validateExpiry(cfg.JWTExpiry); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func defaultExpiry(stage string) string {
	if stage == StageProd {
		return "8760h"
	}
	return "never"
}

func validateExpiry(value string) error {
	if value == "never" {
		return nil
	}
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidJWTExpiry, value)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
