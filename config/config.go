package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds process-wide settings. Secrets come from the environment,
// tunables have defaults that match the deployed behavior.
type Config struct {
	BotToken     string
	OMDBAPIKey   string
	TMDBAPIKey   string
	GeminiAPIKey string

	StorageDir string
	LogDir     string
	HTTPAddr   string

	ResultLimit    int
	QuotaCeiling   int
	UnlockDelay    time.Duration
	RequestTimeout time.Duration
}

var ErrBotTokenRequired = errors.New("BOT_TOKEN is required")

// Load reads configuration from the environment, applying defaults for
// everything except the bot token.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:       os.Getenv("BOT_TOKEN"),
		OMDBAPIKey:     os.Getenv("OMDB_API_KEY"),
		TMDBAPIKey:     os.Getenv("TMDB_API_KEY"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		StorageDir:     envOr("STORAGE_DIR", "./data"),
		LogDir:         envOr("LOG_DIR", "./logs"),
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		ResultLimit:    envOrInt("RESULT_LIMIT", 8),
		QuotaCeiling:   envOrInt("AI_DAILY_LIMIT", 5),
		UnlockDelay:    time.Duration(envOrInt("UNLOCK_DELAY_SECONDS", 5)) * time.Second,
		RequestTimeout: time.Duration(envOrInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}

	if cfg.BotToken == "" {
		return nil, ErrBotTokenRequired
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
