package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_BASE_URL", "http://inventory.local:8000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "*/15 * * * *", cfg.RefdataRefreshCron)
	assert.Equal(t, int64(26214400), cfg.UploadMaxBytes)
	assert.Equal(t, 1600, cfg.PhotoMaxDimension)
	assert.Equal(t, ":9091", cfg.WorkerMetricsAddr)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsRelativeBackendURL(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_BASE_URL", "inventory.local")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.CSRFSecret = ""
	assert.Error(t, cfg.Validate())
	assert.NoError(t, testConfig().Validate())
}
