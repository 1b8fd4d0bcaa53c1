package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8041, cfg.Port)
	assert.Equal(t, "data/users.db", cfg.DBPath)
	assert.Equal(t, 100, cfg.UsersNumber)
	assert.True(t, cfg.Churn.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Churn.Interval)
	assert.Equal(t, 100, cfg.Search.DefaultLimit)
	assert.Equal(t, 1000, cfg.Search.MaxLimit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("USERS_NUMBER", "25")
	t.Setenv("CHURN_INTERVAL", "90s")
	t.Setenv("CHURN_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("GENERATOR_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 25, cfg.UsersNumber)
	assert.Equal(t, 90*time.Second, cfg.Churn.Interval)
	assert.False(t, cfg.Churn.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, uint64(42), cfg.GeneratorSeed)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":          "70000",
		"CHURN_INTERVAL":       "0s",
		"USERS_NUMBER":         "-1",
		"SEARCH_DEFAULT_LIMIT": "5000",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_Unparseable(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	_, err := Load()
	assert.Error(t, err)
}
