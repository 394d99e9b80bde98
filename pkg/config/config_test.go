package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"FUZZY_SYSTEM", "LOG_LEVEL", "LOOP_RATE_HZ", "CACHE_SIZE", "BREAKER_TIMEOUT", "FALLBACK_DEFAULTS"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "", cfg.SystemPath)
	assert.Equal(t, "lettuce", cfg.Crop)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1.0, cfg.LoopRateHz)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.Equal(t, 3, cfg.BreakerMaxFailures)
	assert.Equal(t, 10*time.Second, cfg.BreakerTimeout)
	assert.Equal(t, "hold-last", cfg.FallbackPolicy)
	assert.Empty(t, cfg.Fallbacks)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FUZZY_SYSTEM", "/etc/fuzzy/tomato.yaml")
	t.Setenv("LOOP_RATE_HZ", "2.5")
	t.Setenv("LOOP_CYCLES", "100")
	t.Setenv("CACHE_SIZE", "256")
	t.Setenv("BREAKER_TIMEOUT", "1m")
	t.Setenv("FALLBACK_DEFAULTS", "heating=0, irrigation = 12.5,broken,light_adjust=x")

	cfg := LoadConfig()
	assert.Equal(t, "/etc/fuzzy/tomato.yaml", cfg.SystemPath)
	assert.Equal(t, 2.5, cfg.LoopRateHz)
	assert.Equal(t, 100, cfg.LoopCycles)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Equal(t, time.Minute, cfg.BreakerTimeout)
	assert.Equal(t, map[string]float64{"heating": 0, "irrigation": 12.5}, cfg.Fallbacks)
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("LOOP_RATE_HZ", "fast")
	t.Setenv("CACHE_SIZE", "lots")
	t.Setenv("BREAKER_TIMEOUT", "soon")

	cfg := LoadConfig()
	assert.Equal(t, 1.0, cfg.LoopRateHz)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.Equal(t, 10*time.Second, cfg.BreakerTimeout)
}

func TestValidate(t *testing.T) {
	require.NoError(t, LoadConfig().Validate())

	t.Setenv("BREAKER_MAX_FAILURES", "-1")
	t.Setenv("CACHE_SIZE", "-5")
	err := LoadConfig().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BREAKER_MAX_FAILURES must be at least 1, got -1")
	assert.Contains(t, err.Error(), "CACHE_SIZE")

	t.Setenv("BREAKER_MAX_FAILURES", "0")
	t.Setenv("CACHE_SIZE", "0")
	require.Error(t, LoadConfig().Validate())
}

func TestParseCommaSeparated(t *testing.T) {
	assert.Equal(t, []string{}, parseCommaSeparated(""))
	assert.Equal(t, []string{"a", "b"}, parseCommaSeparated(" a, ,b "))
}
