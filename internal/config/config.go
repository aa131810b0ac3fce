package config

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config carries everything the service reads from the environment.
// Secrets stay as raw strings; main decides what is fatal when missing.
type Config struct {
	DatabaseURL string
	HTTPPort    string
	JWTSecret   string
	JWTTTL      time.Duration
	HashWorkers int
	BaseURL     string
	LogLevel    string
}

func FromEnv() Config {
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPPort:    envOr("HTTP_PORT", "8080"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      envDuration("JWT_EXPIRES_IN", 24*time.Hour),
		HashWorkers: envInt("HASH_WORKERS", runtime.NumCPU()),
		BaseURL:     envOr("BASE_URL", "http://localhost:8080"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
