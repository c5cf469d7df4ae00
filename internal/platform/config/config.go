package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr string

	// FirestoreProjectID selects the hosted document store. Empty selects the
	// in-memory store (local development and tests).
	FirestoreProjectID string

	// RedisURL enables the counter-based id allocator. Empty falls back to the
	// legacy max-suffix scan.
	RedisURL string

	// KafkaBrokers enables lifecycle event publishing. Empty selects the no-op
	// publisher.
	KafkaBrokers []string

	JWTSigningKey string

	DefaultPageSize int
	MaxPageSize     int

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:               getenv("COVERDESK_ADDR", ":8080"),
		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		DefaultPageSize:    getint("SEARCH_PAGE_SIZE", 20),
		MaxPageSize:        getint("SEARCH_MAX_PAGE_SIZE", 100),
		ShutdownTimeout:    10 * time.Second,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
