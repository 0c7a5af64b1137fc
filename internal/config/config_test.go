package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "does-not-exist")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.BroadcastInterval)
	assert.Equal(t, 60*time.Second, cfg.BridgeTimeout)
	assert.Equal(t, 64, cfg.BridgeQueue)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.True(t, cfg.LegacyQueryAlias)
	assert.Equal(t, int64(5), cfg.Youtube.SearchLimit)
	assert.Empty(t, cfg.Guilds)
}
