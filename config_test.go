package wirerpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDecodesWeaklyTypedInput(t *testing.T) {
	cfg, err := LoadConfig(map[string]any{
		"IOServiceNumber":     "3",
		"WorkerThreads":       8,
		"Timeout":             "2s",
		"DrainPendingOnClose": "true",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.IOServiceNumber)
	assert.Equal(t, 8, cfg.WorkerThreads)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.True(t, cfg.DrainPendingOnClose)
	assert.NotNil(t, cfg.Logger)
}

func TestLoadConfigAppliesMinimumsForZeroValues(t *testing.T) {
	cfg, err := LoadConfig(map[string]any{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cfg.IOServiceNumber, 1)
	assert.GreaterOrEqual(t, cfg.WorkerThreads, 1)
}

func TestDefaultConfigHasSaneDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.IOServiceNumber)
	assert.Equal(t, 4, cfg.WorkerThreads)
	assert.False(t, cfg.DrainPendingOnClose)
	assert.NotNil(t, cfg.Logger)
}
