package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Port:            "8081",
		ShutdownTimeout: 30 * time.Second,
		RateLimitPerMin: 120,
		SQLiteDBPath:    filepath.Join(t.TempDir(), "daan.db"),
		AMQPExchange:    "daan",
		AMQPQueue:       "ledger_events",
		PageSizeDefault: 50,
		PageSizeMax:     500,
		DonorCacheSize:  256,
		DonorCacheTTL:   5 * time.Minute,
		LogLevel:        "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:   "valid with amqp and delete hash",
			mutate: func(c *Config) { c.AMQPURL = "amqps://user:pw@broker:5671/"; c.DeleteSecretHash = "$2a$10$abcdefghijklmnopqrstuv" },
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty sqlite path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "invalid amqp scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://localhost:5672/" },
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "amqp without queue",
			mutate:      func(c *Config) { c.AMQPURL = "amqp://localhost/"; c.AMQPQueue = "" },
			errorString: "AMQP queue name cannot be empty",
		},
		{
			name:        "plain text delete secret",
			mutate:      func(c *Config) { c.DeleteSecretHash = "hunter2" },
			errorString: "DELETE_SECRET_HASH must be a bcrypt hash",
		},
		{
			name:        "max page below default",
			mutate:      func(c *Config) { c.PageSizeMax = 10 },
			errorString: "invalid max page size 10",
		},
		{
			name:        "negative rate limit",
			mutate:      func(c *Config) { c.RateLimitPerMin = -1 },
			errorString: "invalid rate limit -1",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			errorString: "invalid log level 'verbose'",
		},
		{
			name:        "short shutdown timeout",
			mutate:      func(c *Config) { c.ShutdownTimeout = time.Millisecond },
			errorString: "invalid shutdown timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorString) {
				t.Fatalf("expected error containing %q, got %v", tt.errorString, err)
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "0"
	cfg.PageSizeDefault = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Count(err.Error(), "\n- ") != 2 {
		t.Fatalf("expected two problems listed, got %q", err.Error())
	}
}

func TestConfig_ValidateCreatesDatabaseDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "nested", "dir", "daan.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "SQLITE_DB_PATH", "AMQP_URL", "AMQP_EXCHANGE", "AMQP_QUEUE", "PAGE_SIZE_DEFAULT", "PAGE_SIZE_MAX", "RATE_LIMIT_PER_MINUTE", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "GOOGLE_SPREADSHEET_ID"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Port != "8081" || cfg.SQLiteDBPath != "./data/daan.db" {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.AMQPURL != "" || cfg.AMQPExchange != "daan" || cfg.AMQPQueue != "ledger_events" {
		t.Errorf("unexpected AMQP defaults: %+v", cfg)
	}
	if cfg.PageSizeDefault != 50 || cfg.PageSizeMax != 500 || cfg.RateLimitPerMin != 120 {
		t.Errorf("unexpected limits: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 30*time.Second || cfg.LogLevel != "info" {
		t.Errorf("unexpected misc defaults: %+v", cfg)
	}
	if cfg.MirrorEnabled() {
		t.Error("mirror should be disabled without a spreadsheet id")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PAGE_SIZE_MAX", "1000")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "abc")

	cfg := Load()
	if cfg.Port != "9000" || cfg.PageSizeMax != 1000 || cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.RateLimitPerMin)
	}
	if !cfg.MirrorEnabled() {
		t.Error("mirror should be enabled with a spreadsheet id")
	}
}
