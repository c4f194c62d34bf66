package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DatabaseURL   string
	AdminToken    string
	ShuffleWindow time.Duration
	Retention     time.Duration
	IdleTTL       time.Duration
	CacheTTL      time.Duration
	DevLogging    bool
}

// Load reads .env when present, then the environment. Every value has
// a default so the server runs with no configuration at all (in-memory
// store, dev logging off).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getEnv("ADDR", ":8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		AdminToken:    getEnv("ADMIN_TOKEN", ""),
		ShuffleWindow: time.Duration(getEnvAsInt("SHUFFLE_WINDOW_SEC", 3)) * time.Second,
		Retention:     time.Duration(getEnvAsInt("ROOM_RETENTION_MIN", 10)) * time.Minute,
		IdleTTL:       time.Duration(getEnvAsInt("ROOM_IDLE_TTL_MIN", 30)) * time.Minute,
		CacheTTL:      time.Duration(getEnvAsInt("CACHE_TTL_MIN", 15)) * time.Minute,
		DevLogging:    getEnv("DEV_LOGGING", "") != "",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
