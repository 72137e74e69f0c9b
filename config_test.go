package agentauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, int64(30), cfg.ChallengeTTLSeconds)
	assert.Equal(t, int64(3600), cfg.TokenTTLSeconds)
	assert.Equal(t, 0.7, cfg.MinScore)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.True(t, cfg.Pomi.Enabled)
	assert.Len(t, cfg.Pomi.ModelFamilies, 5)
	assert.True(t, cfg.Timing.Enabled)
	assert.Equal(t, 20, cfg.Timing.SessionWindowSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, StoreBackendMemory, cfg.StoreBackend)
}
