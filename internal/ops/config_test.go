package ops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, cfg.Symbols)
	assert.Equal(t, "tickpipe.table", cfg.RegionName)
	assert.Equal(t, "127.0.0.1:8000", cfg.PriceAddr)
	assert.Equal(t, "127.0.0.1:8001", cfg.NewsAddr)
	assert.Equal(t, "127.0.0.1:8002", cfg.OrderAddr)
	assert.Equal(t, 10*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.NewsInterval)
	assert.Equal(t, 2*time.Second, cfg.Backoff)
	assert.Equal(t, 1024, cfg.QueueSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TICKPIPE_PRICE_ADDR", "127.0.0.1:9000")
	t.Setenv("TICKPIPE_BACKOFF", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.PriceAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.Backoff)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("TICKPIPE_BACKOFF", "0s")
	_, err := Load("")
	assert.Error(t, err)
}

func TestRegistryFromConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Count())
}
