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

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, "youtuber.db", cfg.DatabasePath)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "sora-2", cfg.SoraModel)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, time.Minute, cfg.ScheduleInterval)
	assert.Equal(t, 10*time.Minute, cfg.RetryInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("SCHEDULE_TIMEZONE", "UTC")
	t.Setenv("SCHEDULE_INTERVAL", "30")
	t.Setenv("POLL_INTERVAL", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 30*time.Second, cfg.ScheduleInterval)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	_, err := Load()
	assert.Error(t, err)
}
