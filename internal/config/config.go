package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"daan/internal/log"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	RateLimitPerMin int

	// Database
	SQLiteDBPath string

	// AMQP. An empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID     string
	GoogleDonationsSheet    string
	GoogleInstallmentsSheet string
	GoogleExpensesSheet     string

	// Delete confirmation. An empty hash disables deletes.
	DeleteSecretHash string

	// Listing
	PageSizeDefault int
	PageSizeMax     int

	// Donor autocomplete cache
	DonorCacheSize int
	DonorCacheTTL  time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/daan.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "daan"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleDonationsSheet:    getEnv("GOOGLE_DONATIONS_SHEET", "Donations"),
		GoogleInstallmentsSheet: getEnv("GOOGLE_INSTALLMENTS_SHEET", "Installments"),
		GoogleExpensesSheet:     getEnv("GOOGLE_EXPENSES_SHEET", "Expenses"),

		DeleteSecretHash: getEnv("DELETE_SECRET_HASH", ""),

		PageSizeDefault: getEnvInt("PAGE_SIZE_DEFAULT", 50),
		PageSizeMax:     getEnvInt("PAGE_SIZE_MAX", 500),

		DonorCacheSize: getEnvInt("DONOR_CACHE_SIZE", 256),
		DonorCacheTTL:  getEnvDuration("DONOR_CACHE_TTL", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DeleteSecretHash != "" && !strings.HasPrefix(c.DeleteSecretHash, "$2") {
		errors = append(errors, "DELETE_SECRET_HASH must be a bcrypt hash")
	}

	if c.PageSizeDefault < 1 {
		errors = append(errors, fmt.Sprintf("invalid default page size %d: must be at least 1", c.PageSizeDefault))
	}
	if c.PageSizeMax < c.PageSizeDefault {
		errors = append(errors, fmt.Sprintf("invalid max page size %d: must be at least the default %d", c.PageSizeMax, c.PageSizeDefault))
	}

	if c.RateLimitPerMin < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMin))
	}

	if c.DonorCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid donor cache size %d: must be at least 1", c.DonorCacheSize))
	}
	if c.DonorCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid donor cache TTL %v: must be at least 1 second", c.DonorCacheTTL))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// MirrorEnabled reports whether the worker should write to Google Sheets.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
