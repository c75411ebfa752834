package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the settings for a simulation session.
type Config struct {
	CatalogPath string // YAML catalog loaded at startup, optional
	JournalDSN  string // SQLite journal location, ":memory:" by default
	LogLevel    string
}

// Load reads a .env file if one exists, then the environment.
func Load() *Config {
	// A missing .env file is normal; the environment alone is enough.
	_ = godotenv.Load()

	return &Config{
		CatalogPath: getEnv("LIBRARY_CATALOG", ""),
		JournalDSN:  getEnv("LIBRARY_JOURNAL_DSN", ":memory:"),
		LogLevel:    strings.ToLower(getEnv("LIBRARY_LOG_LEVEL", "info")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
