package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8400", cfg.Server.Port)
	assert.Equal(t, "http://localhost:3000", cfg.Preview.AllowedOrigin)
	assert.Equal(t, 30*time.Second, cfg.Preview.IntentTimeout)
	assert.Empty(t, cfg.Edge.BaseURL)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("PREVIEW_ALLOWED_ORIGIN", "https://studio.example.com")
	t.Setenv("PREVIEW_INTENT_TIMEOUT", "5s")
	t.Setenv("EDGE_BASE_URL", "https://edge.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "https://studio.example.com", cfg.Preview.AllowedOrigin)
	assert.Equal(t, 5*time.Second, cfg.Preview.IntentTimeout)
	assert.Equal(t, "https://edge.example.com", cfg.Edge.BaseURL)
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("PORT", "9999")

	path := filepath.Join(t.TempDir(), "previewd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
preview:
  allowed_origin: https://file.example.com
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	// File values win over the environment.
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "https://file.example.com", cfg.Preview.AllowedOrigin)
	// Untouched values keep their env/default resolution.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8400", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Preview.IntentTimeout)
	assert.Equal(t, 2, cfg.Edge.RetryMax)
	assert.Equal(t, "info", cfg.Logging.Level)
}
