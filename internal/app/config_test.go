package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("CSRF_SECRET", "csrf-secret")
	t.Setenv("APP_TIMEZONE", "America/Mexico_City")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 25*time.Second, cfg.ExportTimeout)
	assert.Equal(t, "0 19 * * 5", cfg.ArchiveCron)
	assert.Equal(t, "America/Mexico_City", cfg.Location().String())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("CSRF_SECRET", "csrf-secret")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars/Olympus_Mons")
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "csrf-secret")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestNilConfigLocation(t *testing.T) {
	var cfg *Config
	assert.Equal(t, time.Local, cfg.Location())
	assert.False(t, cfg.IsProduction())
}
