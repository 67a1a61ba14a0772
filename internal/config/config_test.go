package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
world:
  params:
    seed: 1337
    terrain:
      algorithm: perlin
      scale: 40
      magnitude: 0.4
      offset: 0.3
    chunk_size:
      width: 16
      height: 24
    draw_distance: 3
  streaming:
    async: false
    budget: 8ms
storage:
  backend: sql
  compress: true
  sql:
    driver: sqlite
    dsn: world.db
eventbus:
  backend: jetstream
  url: nats://127.0.0.1:4222
server:
  rest_port: 9090
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	p := cfg.World.Params
	assert.Equal(t, int64(1337), p.Seed)
	assert.Equal(t, noise.AlgorithmPerlin, p.Terrain.Algorithm)
	assert.Equal(t, 16, p.ChunkSize.Width)
	assert.Equal(t, 3, p.DrawDistance)
	assert.Len(t, p.Resources, 3, "ресурсы по умолчанию сохраняются")
	assert.False(t, cfg.World.Streaming.Async)
	assert.Equal(t, 8*time.Millisecond, cfg.World.Streaming.Budget)
	assert.Equal(t, 64, cfg.World.Streaming.MaxQueued)
	assert.Equal(t, "sql", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Compress)
	assert.Equal(t, "sqlite", cfg.Storage.SQL.Driver)
	assert.Equal(t, "jetstream", cfg.EventBus.Backend)
	assert.Equal(t, 9090, cfg.Server.GetRESTPort())
}

func TestLoadRejectsInvalidParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  params:\n    chunk_size:\n      width: -1\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  frame_rate: 60\n"), 0644))
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Server.GetFrameRate())
}

func TestRESTPortEnvFallback(t *testing.T) {
	t.Setenv("VOXEL_REST_PORT", "7070")
	s := ServerConfig{}
	assert.Equal(t, 7070, s.GetRESTPort())

	t.Setenv("VOXEL_REST_PORT", "oops")
	assert.Equal(t, 8088, s.GetRESTPort())
}
