package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMinEpisodeScore = 8.5
	defaultLanguage        = "es-ES"
	defaultStatusAddr      = "127.0.0.1:5007"
	defaultHTTPTimeout     = 15 * time.Second
	defaultSessionSize     = 256
)

// Config holds the process configuration, sourced from the environment once
// at startup.
type Config struct {
	TelegramToken   string
	TMDBAPIKey      string
	AllowedUsers    map[string]struct{}
	MinEpisodeScore float64
	Language        string
	StatusAddr      string
	HTTPTimeout     time.Duration
	SessionSize     int
}

// Load reads configuration from the environment and applies defaults.
// Missing credentials are a startup error, not a runtime one.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		TMDBAPIKey:      strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		AllowedUsers:    parseAllowedUsers(os.Getenv("ALLOWED_USERS")),
		MinEpisodeScore: defaultMinEpisodeScore,
		Language:        defaultLanguage,
		StatusAddr:      defaultStatusAddr,
		HTTPTimeout:     defaultHTTPTimeout,
		SessionSize:     defaultSessionSize,
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if len(cfg.AllowedUsers) == 0 {
		return nil, fmt.Errorf("ALLOWED_USERS is required")
	}

	if raw := strings.TrimSpace(os.Getenv("MIN_EPISODE_SCORE")); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parse MIN_EPISODE_SCORE: %w", err)
		}
		cfg.MinEpisodeScore = score
	}
	if lang := strings.TrimSpace(os.Getenv("TMDB_LANGUAGE")); lang != "" {
		cfg.Language = lang
	}
	if addr := strings.TrimSpace(os.Getenv("STATUS_ADDR")); addr != "" {
		cfg.StatusAddr = addr
	}
	if raw := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT_SECONDS")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS %q", raw)
		}
		cfg.HTTPTimeout = time.Duration(secs) * time.Second
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_SIZE")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid SESSION_SIZE %q", raw)
		}
		cfg.SessionSize = size
	}

	return cfg, nil
}

// UserAllowed reports whether the given Telegram username is on the
// allow-list. Empty usernames are always rejected.
func (c *Config) UserAllowed(username string) bool {
	if username == "" {
		return false
	}
	_, ok := c.AllowedUsers[username]
	return ok
}

func parseAllowedUsers(raw string) map[string]struct{} {
	users := make(map[string]struct{})
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "@"))
		if name != "" {
			users[name] = struct{}{}
		}
	}
	return users
}
