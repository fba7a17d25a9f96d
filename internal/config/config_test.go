package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "https://ophim1.com", cfg.Upstream.BaseURL)
	assert.Equal(t, 500, cfg.Player.UpcomingCeiling)
	assert.Equal(t, "/v1/api/tim-kiem", cfg.Upstream.Endpoints.Search)
}

func TestLoadOverlaysFile(t *testing.T) {
	t.Setenv("CAMCAM_TEST_HOST", "https://img.example")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
upstream:
  timeout: 5s
  endpoints:
    search: /custom/search
images:
  host: ${CAMCAM_TEST_HOST}
search:
  debounce: 150ms
logging:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "/custom/search", cfg.Upstream.Endpoints.Search)
	assert.Equal(t, "/phim", cfg.Upstream.Endpoints.Detail)
	assert.Equal(t, "https://img.example", cfg.Images.Host)
	assert.Equal(t, 150*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
