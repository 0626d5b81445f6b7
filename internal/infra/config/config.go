package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultStudioAPIBaseURL = "http://127.0.0.1:8000/api"
	DefaultStudioAPITimeout = 15 * time.Second
	DefaultCronSpecRefresh  = "@every 5m"
	DefaultCronSpecDigest   = "0 9 * * *"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken      string
	DatabaseURL        string
	AdminTelegramID    int64
	ManagerTelegramIDs []int64
	LogLevel           string
	Environment        string

	StudioAPIBaseURL  string
	StudioAPIToken    string
	StudioAPIUsername string
	StudioAPIPassword string
	StudioAPITimeout  time.Duration
	StudioFrontendURL string

	CronSpecRefresh string // Alert board refresh, also pushes new alerts
	CronSpecDigest  string // Full board digest to subscribers
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables already set in the environment.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.ManagerTelegramIDs, err = parseIDList(os.Getenv("MANAGER_TELEGRAM_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid MANAGER_TELEGRAM_IDS: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.StudioAPIBaseURL = strings.TrimRight(os.Getenv("STUDIO_API_BASE_URL"), "/")
	if cfg.StudioAPIBaseURL == "" {
		cfg.StudioAPIBaseURL = DefaultStudioAPIBaseURL
	}

	// A missing credential is not fatal: the board reports "not authenticated".
	cfg.StudioAPIToken = os.Getenv("STUDIO_API_TOKEN")
	cfg.StudioAPIUsername = os.Getenv("STUDIO_API_USERNAME")
	cfg.StudioAPIPassword = os.Getenv("STUDIO_API_PASSWORD")

	cfg.StudioAPITimeout = DefaultStudioAPITimeout
	if v := os.Getenv("STUDIO_API_TIMEOUT"); v != "" {
		cfg.StudioAPITimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STUDIO_API_TIMEOUT: %w", err)
		}
	}

	cfg.StudioFrontendURL = strings.TrimRight(os.Getenv("STUDIO_FRONTEND_URL"), "/")

	cfg.CronSpecRefresh = os.Getenv("CRON_SPEC_REFRESH")
	if cfg.CronSpecRefresh == "" {
		cfg.CronSpecRefresh = DefaultCronSpecRefresh
	}

	cfg.CronSpecDigest = os.Getenv("CRON_SPEC_DIGEST")
	if cfg.CronSpecDigest == "" {
		cfg.CronSpecDigest = DefaultCronSpecDigest
	}

	return cfg, nil
}

// HasLogin reports whether username/password login is configured.
func (c *AppConfig) HasLogin() bool {
	return c.StudioAPIUsername != "" && c.StudioAPIPassword != ""
}

func parseIDList(raw string) ([]int64, error) {
	ids := make([]int64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
