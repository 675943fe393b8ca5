package spritelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfig_Defaults(t *testing.T) {
	cfg, err := DecodeConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 100, cfg.InitialCapacity)
	assert.Equal(t, float32(128), cfg.SpatialCellSize)
}

func TestDecodeConfig_AllKeys(t *testing.T) {
	cfg, err := DecodeConfig(`
initial_capacity = 16
lazy = true
use_spatial_index = true
spatial_cell_size = 32.5
rebuild_workers = 3
label = "Enemies"
`)
	require.NoError(t, err)
	assert.Equal(t, Config{
		InitialCapacity: 16,
		Lazy:            true,
		UseSpatialIndex: true,
		SpatialCellSize: 32.5,
		RebuildWorkers:  3,
		Label:           "Enemies",
	}, cfg)

	l, err := NewSpriteList(cfg.Options()...)
	require.NoError(t, err)
	assert.Equal(t, 16, l.Capacity())
	assert.False(t, l.Realized())
	assert.True(t, l.SpatialIndexEnabled())
	assert.Equal(t, "Enemies", l.Label())

	inner := l.(*spriteList)
	assert.Equal(t, float32(32.5), inner.spatial.cellSize)
	assert.Equal(t, 3, inner.spatial.workers)
}

func TestDecodeConfig_Errors(t *testing.T) {
	_, err := DecodeConfig(`initial_capacity = "lots"`)
	assert.Error(t, err)

	_, err = DecodeConfig("lazzy = true\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lazzy")

	_, err = DecodeConfig("spatial_cell_size = 0.0\n")
	assert.Error(t, err)

	_, err = DecodeConfig("initial_capacity = -1\n")
	assert.Error(t, err)

	_, err = DecodeConfig("rebuild_workers = 0\n")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.toml")
	require.NoError(t, os.WriteFile(path, []byte("lazy = true\nlabel = \"Bullets\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Lazy)
	assert.Equal(t, "Bullets", cfg.Label)
	assert.Equal(t, DefaultInitialCapacity, cfg.InitialCapacity)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
