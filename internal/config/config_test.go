package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	v, err := envInt("TEST_INT", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntFallback(t *testing.T) {
	// TEST_INT_MISSING is not set.
	v, err := envInt("TEST_INT_MISSING", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	_, err := envInt("TEST_INT_BAD", 0)
	if err == nil {
		t.Fatal("expected error for non-integer value, got nil")
	}
	if got := err.Error(); got != `TEST_INT_BAD="abc" is not a valid integer` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvBoolInvalid(t *testing.T) {
	t.Setenv("TEST_BOOL_BAD", "maybe")
	_, err := envBool("TEST_BOOL_BAD", false)
	if err == nil {
		t.Fatal("expected error for non-boolean value, got nil")
	}
	if got := err.Error(); got != `TEST_BOOL_BAD="maybe" is not a valid boolean` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvDurationInvalid(t *testing.T) {
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	_, err := envDuration("TEST_DUR_BAD", 0)
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if got := err.Error(); got != `TEST_DUR_BAD="five-seconds" is not a valid duration` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	// With no env vars set, Load should succeed using all defaults.
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.WriteTimeout != 120*time.Second {
		t.Fatalf("expected default write timeout 120s, got %s", cfg.WriteTimeout)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level, got %s", cfg.SlogLevel())
	}
}

func TestLoadReadsDatabaseURI(t *testing.T) {
	t.Setenv("DB_URI", "postgres://u:p@db:5432/runs")
	t.Setenv("PORT", "9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://u:p@db:5432/runs" {
		t.Fatalf("unexpected DatabaseURL: %s", cfg.DatabaseURL)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.Port)
	}
}

func TestLoadFailsOnMultipleInvalid(t *testing.T) {
	t.Setenv("PORT", "abc")
	t.Setenv("RUNEXPORT_WRITE_TIMEOUT", "xyz")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with multiple invalid vars")
	}
	got := err.Error()
	for _, want := range []string{"PORT", "abc", "RUNEXPORT_WRITE_TIMEOUT", "xyz"} {
		if !strings.Contains(got, want) {
			t.Fatalf("error should mention %q, got: %s", want, got)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:            8080,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
		DatabaseURL:     "postgres://localhost/runs",
		LogLevel:        "debug",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %s", valid.SlogLevel())
	}

	cases := map[string]func(*Config){
		"empty DB_URI":     func(c *Config) { c.DatabaseURL = "" },
		"port too large":   func(c *Config) { c.Port = 70000 },
		"port zero":        func(c *Config) { c.Port = 0 },
		"negative port":    func(c *Config) { c.Port = -1 },
		"zero timeout":     func(c *Config) { c.WriteTimeout = 0 },
		"unknown loglevel": func(c *Config) { c.LogLevel = "chatty" },
	}
	for name, mutate := range cases {
		c := valid
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
