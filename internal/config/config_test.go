package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://nebula-api.thirdweb.com", cfg.Provider.BaseURL)
	assert.Equal(t, "30", cfg.Provider.ChainID)
	assert.Equal(t, 1, cfg.Provider.MaxAttempts)
	assert.Equal(t, "https://openrouter.ai/api", cfg.Model.BaseURL)
	assert.Equal(t, "deepseek/deepseek-r1:free", cfg.Model.Model)
	assert.Equal(t, 10000, cfg.Model.MaxTokens)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.FreeTier)
	assert.Equal(t, 50, cfg.RateLimit.PaidTier)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PROVIDER_SECRET_KEY", "secret")
	t.Setenv("PROVIDER_MAX_ATTEMPTS", "3")
	t.Setenv("MODEL_NAME", "some/other-model")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "1h30m")
	t.Setenv("HISTORY_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Provider.SecretKey)
	assert.Equal(t, 3, cfg.Provider.MaxAttempts)
	assert.Equal(t, "some/other-model", cfg.Model.Model)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 90*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PROVIDER_MAX_ATTEMPTS", "many")
	t.Setenv("CACHE_TTL", "later")
	t.Setenv("HISTORY_ENABLED", "yep")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Provider.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.History.Enabled)
}
