package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Series
	Asset        string
	HistoryLimit int

	// Infrastructure
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	HTTPAddr      string

	// Evaluation loop. RefreshCron, when set, overrides RefreshInterval.
	RefreshInterval time.Duration
	RefreshCron     string

	// Notifications (empty disables the backend)
	WebhookURL       string
	TelegramBotToken string
	TelegramChatID   string

	// Minimum gap between two alerts on the same backend
	NotifyMinInterval time.Duration

	LogLevel string
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory, if present, is loaded
// first and never overrides variables already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	return &Config{
		Asset:        strings.ToUpper(getEnv("ASSET", "BTC")),
		HistoryLimit: getInt("HISTORY_LIMIT", 10),

		SQLitePath:    getEnv("SQLITE_PATH", "data/cyclewatch.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),

		// Default: hourly re-read of the series
		RefreshInterval: time.Duration(getInt("REFRESH_INTERVAL_SEC", 3600)) * time.Second,
		RefreshCron:     getEnv("REFRESH_CRON", ""),

		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		NotifyMinInterval: time.Duration(getInt("NOTIFY_MIN_INTERVAL_SEC", 60)) * time.Second,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// TelegramEnabled reports whether both Telegram settings are present.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getInt parses a non-negative integer, falling back on missing or invalid values.
func getInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
