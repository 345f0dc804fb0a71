package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cesargomez89/toonshelf/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Host            string
	Port            string
	DBPath          string
	CacheDir        string
	CatalogURL      string
	ConnectivityURL string
	CacheMaxMB      int
	SyncMaxAge      time.Duration
	SyncSchedule    string
	FetchCacheTTL   time.Duration
	LogLevel        string
	LogFormat       string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	home, _ := os.UserHomeDir()
	defaultCache := filepath.Join(home, ".cache/toonshelf")

	return &Config{
		Host:            getEnv("HOST", constants.DefaultHost),
		Port:            getEnv("PORT", constants.DefaultPort),
		DBPath:          getEnv("DB_PATH", constants.DefaultDBPath),
		CacheDir:        getEnv("CACHE_DIR", defaultCache),
		CatalogURL:      getEnv("CATALOG_URL", constants.DefaultCatalogURL),
		ConnectivityURL: getEnv("CONNECTIVITY_URL", constants.DefaultConnectivityURL),
		CacheMaxMB:      getEnvInt("CACHE_MAX_MB", constants.DefaultCacheMaxMB),
		SyncMaxAge:      getEnvDuration("SYNC_MAX_AGE", constants.DefaultSyncMaxAge),
		SyncSchedule:    getEnv("SYNC_SCHEDULE", constants.DefaultSyncSchedule),
		FetchCacheTTL:   getEnvDuration("FETCH_CACHE_TTL", constants.DefaultFetchCacheTTL),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}
}

// CacheMaxBytes returns the image cache budget in bytes.
func (c *Config) CacheMaxBytes() int64 {
	return int64(c.CacheMaxMB) * 1024 * 1024
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.CacheDir == "" {
		errors = append(errors, "CACHE_DIR cannot be empty")
	}

	errors = append(errors, validateURL("CATALOG_URL", c.CatalogURL)...)
	// Empty connectivity URL disables the online check
	if c.ConnectivityURL != "" {
		errors = append(errors, validateURL("CONNECTIVITY_URL", c.ConnectivityURL)...)
	}

	if c.CacheMaxMB < 1 {
		errors = append(errors, fmt.Sprintf("CACHE_MAX_MB must be positive, got: %d", c.CacheMaxMB))
	}

	if c.SyncMaxAge <= 0 {
		errors = append(errors, fmt.Sprintf("SYNC_MAX_AGE must be positive, got: %s", c.SyncMaxAge))
	}

	if c.FetchCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("FETCH_CACHE_TTL cannot be negative, got: %s", c.FetchCacheTTL))
	}

	// Empty schedule disables periodic sync
	if c.SyncSchedule != "" {
		if _, err := cron.ParseStandard(c.SyncSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("SYNC_SCHEDULE is not a valid cron expression: %s", c.SyncSchedule))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateURL(key, value string) []string {
	if value == "" {
		return []string{key + " cannot be empty"}
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return []string{fmt.Sprintf("%s is not a valid URL: %s", key, value)}
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt returns -1 for unparseable values so Validate can report them.
func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return -1
	}
	return d
}
