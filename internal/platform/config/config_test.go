package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFailsWithoutBackendURL(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_URL", "")

	cfg, err := Load()
	require.ErrorIs(t, err, ErrMissingBackendURL)
	assert.Nil(t, cfg)
}

func TestLoadRejectsRelativeBackendURL(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_URL", "127.0.0.1:8000")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_URL", "http://127.0.0.1:8000")
	t.Setenv("DB_HOST", "")
	t.Setenv("TRACKER_MAX_POLLS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.BackendURL.Host)
	assert.Equal(t, "api", cfg.ProxyPrefix)
	assert.Equal(t, "test", cfg.PlaceholderToken)
	assert.Equal(t, 2*time.Second, cfg.TrackerPollInterval)
	assert.Equal(t, 150, cfg.TrackerMaxPolls)
	assert.Empty(t, cfg.DBConnStr)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadBuildsConnString(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_URL", "http://backend")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "ledger")
	t.Setenv("TRACKER_MAX_POLLS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DBConnStr, "host=db")
	assert.Contains(t, cfg.DBConnStr, "dbname=ledger")
	assert.Equal(t, 150, cfg.TrackerMaxPolls)
}

func TestLoadGatewayURL(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_URL", "http://backend")
	t.Setenv("API_PORT", "4100")
	t.Setenv("ALGOTUTOR_GATEWAY_URL", "")
	require.NoError(t, os.Unsetenv("ALGOTUTOR_GATEWAY_URL"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4100", cfg.GatewayURL)

	t.Setenv("ALGOTUTOR_GATEWAY_URL", "https://gw.example.test")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example.test", cfg.GatewayURL)
}
