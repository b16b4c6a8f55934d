// Package config loads the process configuration from the environment, with
// optional .env support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the binary needs to run.
type Config struct {
	// HTTP server.
	ListenAddr    string
	PublicBaseURL string

	// Storage.
	DatabasePath string

	// Video provider.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	SoraModel     string
	TextModel     string

	// YouTube upload.
	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeRefreshToken string

	// Scheduling.
	Timezone         string
	ScheduleInterval time.Duration
	DispatchInterval time.Duration
	PollInterval     time.Duration
	RetryInterval    time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		DatabasePath:  getenv("DATABASE_PATH", "youtuber.db"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		SoraModel:     getenv("SORA_MODEL", "sora-2"),
		TextModel:     getenv("TEXT_MODEL", "gpt-4o-mini"),

		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeRefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),

		Timezone: getenv("SCHEDULE_TIMEZONE", "Asia/Tokyo"),
	}

	var err error
	if cfg.ScheduleInterval, err = getduration("SCHEDULE_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.DispatchInterval, err = getduration("DISPATCH_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getduration("POLL_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RetryInterval, err = getduration("RETRY_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}
