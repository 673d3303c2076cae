package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 30*24*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.SyncInterval)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.RemoteStatsInterval)
	assert.False(t, cfg.SyncConfigured())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("STORAGE_REDIS_ADDR", "cache:6380")
	t.Setenv("SCHEDULER_SYNC_INTERVAL", "90s")
	t.Setenv("PROGRESS_SERVICE_URL", "https://progress.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "cache:6380", cfg.Storage.RedisAddr)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.SyncInterval)
	assert.True(t, cfg.SyncConfigured())
}

func TestInvalidBackendFailsValidation(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "dynamodb")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BACKEND")
}

func TestProductionRequiresProgressService(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROGRESS_SERVICE_URL")
}

func TestMalformedValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("SCHEDULER_SYNC_INTERVAL", "not-a-duration")
	t.Setenv("PROGRESS_SERVICE_RATE_LIMIT", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.SyncInterval)
	assert.Equal(t, 30, cfg.ProgressService.RateLimit)
}

func TestFeatureFlagDefaultsAndOverrides(t *testing.T) {
	t.Setenv("FEATURE_PET_EVOLUTION", "false")

	ff := LoadFeatureFlags()
	assert.True(t, ff.IsEnabled(FeatureQuizDaily))
	assert.False(t, ff.IsEnabled(FeaturePetEvolution), "env override applies")
	assert.False(t, ff.IsEnabled("unknown.flag"))

	ff.Disable(FeatureQuizDaily)
	assert.False(t, ff.IsEnabled(FeatureQuizDaily))
	ff.Enable(FeatureQuizDaily)
	assert.True(t, ff.IsEnabled(FeatureQuizDaily))
}
