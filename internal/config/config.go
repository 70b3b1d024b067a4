package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	TelegramToken     string
	ReviewerChatID    int64
	DatabasePath      string
	UploadDir         string
	ReportDefaultDays int
	SessionTTL        time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabasePath:      os.Getenv("DATABASE_PATH"),
		UploadDir:         os.Getenv("UPLOAD_DIR"),
		ReportDefaultDays: 7,
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./checkup_bot.db"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}

	if raw := os.Getenv("REVIEWER_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid REVIEWER_CHAT_ID %q: %w", raw, err)
		}
		cfg.ReviewerChatID = id
	}

	if raw := os.Getenv("REPORT_DEFAULT_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid REPORT_DEFAULT_DAYS %q", raw)
		}
		cfg.ReportDefaultDays = days
	}

	// 0 disables idle-session expiry
	if raw := os.Getenv("SESSION_TTL_MINUTES"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES %q", raw)
		}
		cfg.SessionTTL = time.Duration(minutes) * time.Minute
	}

	return cfg, nil
}
