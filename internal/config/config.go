// internal/config/config.go
//
// Typed configuration read from the environment. main loads .env first
// (godotenv), so values may come from either place.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	LogLevel zerolog.Level

	// Storage
	StoreDriver string
	SQLitePath  string
	DatabaseURL string

	// Game collaborators
	DictionaryFile string // empty: embedded list
	TokenSecret    string // empty: users.DevSecret
	BoardSeed      *int64 // nil: random boards

	// HTTP
	ClientOrigin   string
	RequestTimeout time.Duration
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "5175"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/boggle.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DictionaryFile: os.Getenv("DICTIONARY_FILE"),
		TokenSecret:    os.Getenv("TOKEN_SECRET"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		RequestTimeout: 10 * time.Second,
	}

	var errs []error

	lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	cfg.LogLevel = lvl

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
		case d <= 0:
			errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", v))
		default:
			cfg.RequestTimeout = d
		}
	}

	if v := os.Getenv("BOARD_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("BOARD_SEED: %w", err))
		} else {
			cfg.BoardSeed = &seed
		}
	}

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("load config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
