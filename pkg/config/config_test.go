package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Server.Port)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 10, cfg.Tile.ChunkZoom)
	assert.Equal(t, 256, cfg.Tile.Size)
	assert.Equal(t, int64(262144000), cfg.Tile.MaxUploadBytes)
	assert.Equal(t, "tiles.db", cfg.DB.Path)
	assert.Equal(t, 2*time.Minute, cfg.Session.CookieMaxAge)
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "9000")
	t.Setenv("TILE_CHUNK_ZOOM", "12")
	t.Setenv("TILE_SIZE", "512")
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("SESSION_COOKIE_MAX_AGE", "30s")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTP.Server.Port)
	assert.Equal(t, 12, cfg.Tile.ChunkZoom)
	assert.Equal(t, 512, cfg.Tile.Size)
	assert.Equal(t, "/tmp/other.db", cfg.DB.Path)
	assert.Equal(t, 30*time.Second, cfg.Session.CookieMaxAge)
}
