package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// Backend API
	APIBaseURL   string
	APIAuthToken string
	OrgID        string
	UserID       string
	HTTPTimeout  time.Duration

	// Display
	DisplayTimezone string

	// Data source selection
	DataSource string

	// Snapshot store
	SnapshotDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Reminder worker
	ReminderScanInterval time.Duration
	ReminderLeadTime     time.Duration

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

func Load() *Config {
	cfg := &Config{
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
		APIAuthToken: getEnv("API_AUTH_TOKEN", ""),
		OrgID:        getEnv("ORG_ID", "ORG123"),
		UserID:       getEnv("USER_ID", ""),
		HTTPTimeout:  getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "Asia/Kolkata"),

		DataSource: getEnv("DATA_SOURCE", "api"),

		SnapshotDBPath: getEnv("SNAPSHOT_DB_PATH", "./data/cashbook.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cashbook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "event_reminders"),

		ReminderScanInterval: getEnvDuration("REMINDER_SCAN_INTERVAL", time.Minute),
		ReminderLeadTime:     getEnvDuration("REMINDER_LEAD_TIME", 15*time.Minute),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate API base URL
	if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.DataSource == "api" && c.APIAuthToken == "" {
		errors = append(errors, "API auth token cannot be empty when using the api data source")
	}
	if c.UserID == "" {
		errors = append(errors, "user ID cannot be empty")
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}

	// Validate data source
	validSources := []string{"api", "snapshot"}
	isValidSource := false
	for _, source := range validSources {
		if c.DataSource == source {
			isValidSource = true
			break
		}
	}
	if !isValidSource {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	// The snapshot database backs both the snapshot source and the
	// background mirror, so the path must always be usable.
	if c.SnapshotDBPath == "" {
		errors = append(errors, "snapshot database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SnapshotDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create snapshot database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
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

	// Validate reminder worker configuration
	if c.ReminderScanInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reminder scan interval %v: must be at least 1 second", c.ReminderScanInterval))
	} else if c.ReminderScanInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder scan interval %v: must be at most 24 hours", c.ReminderScanInterval))
	}
	if c.ReminderLeadTime < 0 {
		errors = append(errors, fmt.Sprintf("invalid reminder lead time %v: must not be negative", c.ReminderLeadTime))
	} else if c.ReminderLeadTime > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder lead time %v: must be at most 24 hours", c.ReminderLeadTime))
	}

	// Validate Google Sheets configuration if export is configured
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is provided")
		}

		hasCredFile := c.GoogleCredentialsFile != ""
		hasCredJSON := c.GoogleCredentialsJSON != ""
		if !hasCredFile && !hasCredJSON {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets export")
		}

		if hasCredFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
