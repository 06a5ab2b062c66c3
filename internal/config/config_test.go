package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfront/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.ImageSlots)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "http://localhost:9192", cfg.BackendURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://api.internal:9000")
	t.Setenv("IMAGE_SLOTS", "4")
	t.Setenv("DRAFT_TTL", "2h")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:9000", cfg.BackendURL)
	assert.Equal(t, 4, cfg.ImageSlots)
	assert.Equal(t, 2*time.Hour, cfg.DraftTTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("IMAGE_SLOTS", "0")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("IMAGE_SLOTS", "10")
	t.Setenv("SESSION_SECRET", "short")
	_, err = config.Load()
	assert.Error(t, err)

	t.Setenv("SESSION_SECRET", "a-long-enough-secret-value")
	t.Setenv("MAX_BODY_BYTES", "10")
	_, err = config.Load()
	assert.Error(t, err)
}

func TestDefaultSecretRefusedWhenCookiesAreSecure(t *testing.T) {
	t.Setenv("COOKIE_SECURE", "true")
	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")

	t.Setenv("SESSION_SECRET", "a-long-enough-secret-value")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.CookieSecure)
}

func TestRequestTimeoutCoversBackendTimeout(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "40s")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("REQUEST_TIMEOUT", "45s")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
}
