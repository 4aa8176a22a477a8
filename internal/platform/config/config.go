// Package config loads runtime configuration from environment variables so
// main stays lean. Only the HTTP address and database URL are required in
// every deployment; cache and broker settings degrade to disabled.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "retiro/pkg/platform/strings"
)

// Config holds everything the server binary needs at startup.
type Config struct {
	Env  string
	Addr string

	DatabaseURL string

	RedisURL      string
	BoardCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey string
}

// FromEnv builds a Config from environment variables with dev defaults.
func FromEnv() Config {
	cfg := Config{
		Env:           getenv("RETIRO_ENV", "dev"),
		Addr:          getenv("RETIRO_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		BoardCacheTTL: durationEnv("BOARD_CACHE_TTL", 5*time.Minute),
		KafkaTopic:    getenv("KAFKA_TOPIC", "retiro.roster.events"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
	}
	// Brokers arrive comma-separated; stray spaces and duplicates are operator noise.
	cfg.KafkaBrokers = pstrings.DedupeAndTrim(strings.Split(os.Getenv("KAFKA_BROKERS"), ","))
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
