package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "STORE_DRIVER", "SQLITE_PATH", "DATABASE_URL",
	"DICTIONARY_FILE", "TOKEN_SECRET", "CLIENT_ORIGIN", "BOARD_SEED", "REQUEST_TIMEOUT",
}

// clearEnv blanks every key so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5175", cfg.Port)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "./data/boggle.db", cfg.SQLitePath)
	assert.Empty(t, cfg.DictionaryFile)
	assert.Empty(t, cfg.TokenSecret)
	assert.Nil(t, cfg.BoardSeed)
	assert.Equal(t, "http://localhost:5173", cfg.ClientOrigin)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/boggle")
	t.Setenv("BOARD_SEED", "-42")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("TOKEN_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost/boggle", cfg.DatabaseURL)
	require.NotNil(t, cfg.BoardSeed)
	assert.Equal(t, int64(-42), *cfg.BoardSeed)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "s3cret", cfg.TokenSecret)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad level":          {"LOG_LEVEL": "loud"},
		"bad driver":         {"STORE_DRIVER": "mongo"},
		"postgres no url":    {"STORE_DRIVER": "postgres"},
		"bad seed":           {"BOARD_SEED": "abc"},
		"bad timeout":        {"REQUEST_TIMEOUT": "soon"},
		"non-positive limit": {"REQUEST_TIMEOUT": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
