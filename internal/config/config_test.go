package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "./output", cfg.Storage.Local.OutputDir)
	assert.Equal(t, 64, cfg.Render.EventBuffer)
	assert.Equal(t, 480, cfg.Render.PreviewMaxSide)
	assert.Equal(t, 100000, cfg.Render.MaxValues)
	assert.Equal(t, int64(64000000), cfg.Render.MaxCanvasPixels)
	assert.True(t, cfg.Render.EmbeddedFallback)
	assert.Len(t, cfg.Render.SystemFonts, 3)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Worker.JobTTL)

	strat := cfg.DefaultRetryStrategy()
	assert.Equal(t, 3, strat.Attempts)
	assert.Equal(t, 500*time.Millisecond, strat.Delay)
	assert.InDelta(t, 2.0, strat.Backoff, 0.0001)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("MINIO_BUCKET", "stickers")
	t.Setenv("RENDER_EVENT_BUFFER", "0")
	t.Setenv("RENDER_YIELD_DELAY", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, "stickers", cfg.Storage.MinIO.Bucket)
	assert.Equal(t, 1, cfg.Render.EventBuffer, "event buffer is at least one")
	assert.Equal(t, 250*time.Millisecond, cfg.Render.YieldDelay)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
render:
  preview_max_side: 200
  system_fonts:
    - /fonts/a.ttf
storage:
  backend: local
  local:
    output_dir: /tmp/labels
server:
  addr: "9090"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Render.PreviewMaxSide)
	assert.Equal(t, []string{"/fonts/a.ttf"}, cfg.Render.SystemFonts)
	assert.Equal(t, "/tmp/labels", cfg.Storage.Local.OutputDir)
	assert.Equal(t, "9090", cfg.Server.Addr)
	assert.Equal(t, 64, cfg.Render.EventBuffer)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
