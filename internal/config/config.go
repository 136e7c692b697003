package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings. Values come from the environment; a
// .env file is loaded by cmd/server before this runs.
type Config struct {
	Addr       string
	SQLitePath string
	JWTSecret  string
	TokenTTL   time.Duration
	DevLogin   bool
	CORSOrigin string
}

// Load reads configuration from environment variables, applying defaults
// suitable for local development.
func Load() *Config {
	ttl := 24 * time.Hour
	if v := os.Getenv("FINDME_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}
	return &Config{
		Addr:       getEnv("FINDME_ADDR", ":8080"),
		SQLitePath: getEnv("FINDME_SQLITE_PATH", "data/findme.db"),
		JWTSecret:  getEnv("FINDME_JWT_SECRET", "findme-dev-secret"),
		TokenTTL:   ttl,
		DevLogin:   getBool("FINDME_DEV_LOGIN", false),
		CORSOrigin: getEnv("FINDME_CORS_ORIGIN", "*"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
