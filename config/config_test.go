package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TMDB_API_KEY", "key")
	t.Setenv("ALLOWED_USERS", "alice,bob")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MinEpisodeScore != 8.5 {
		t.Fatalf("MinEpisodeScore = %v, want 8.5", cfg.MinEpisodeScore)
	}
	if cfg.Language != "es-ES" {
		t.Fatalf("Language = %q, want es-ES", cfg.Language)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("HTTPTimeout = %v, want 15s", cfg.HTTPTimeout)
	}
	if cfg.SessionSize != 256 {
		t.Fatalf("SessionSize = %d, want 256", cfg.SessionSize)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TMDB_API_KEY", "key")
	t.Setenv("ALLOWED_USERS", "alice")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing TELEGRAM_TOKEN")
	}

	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("ALLOWED_USERS", " , ")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty ALLOWED_USERS")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MIN_EPISODE_SCORE", "9.2")
	t.Setenv("TMDB_LANGUAGE", "en-US")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MinEpisodeScore != 9.2 {
		t.Fatalf("MinEpisodeScore = %v, want 9.2", cfg.MinEpisodeScore)
	}
	if cfg.Language != "en-US" {
		t.Fatalf("Language = %q, want en-US", cfg.Language)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	setRequired(t)
	t.Setenv("MIN_EPISODE_SCORE", "high")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable MIN_EPISODE_SCORE")
	}
}

func TestUserAllowed(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_USERS", "alice, @bob ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.UserAllowed("alice") {
		t.Fatal("expected alice to be allowed")
	}
	if !cfg.UserAllowed("bob") {
		t.Fatal("expected bob to be allowed after @ strip")
	}
	if cfg.UserAllowed("mallory") {
		t.Fatal("expected mallory to be rejected")
	}
	if cfg.UserAllowed("") {
		t.Fatal("expected empty username to be rejected")
	}
}
