package main

import (
	"os"
	"strconv"

	"poker-club/backend/internal/db"
	"poker-club/backend/internal/redisclient"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	// Database configuration
	DBConfig db.Config

	// Redis configuration; leave the host empty to run without the
	// distributed scheduler lock
	RedisEnabled bool
	Redis        redisclient.Config

	// Server configuration
	ServerPort  string
	Environment string

	// Authentication. The bootstrap pair seeds the first manager account
	// on an empty operators table.
	JWTSecret         string
	BootstrapUser     string
	BootstrapPassword string

	// Notifications
	WebhookURL string

	// Clock
	ClockCheckpointTicks int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() Config {
	// Load .env file if it exists
	godotenv.Load()

	return Config{
		DBConfig: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "poker_club"),
		},
		RedisEnabled: getEnv("REDIS_HOST", "") != "",
		Redis: redisclient.Config{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		Environment:          getEnv("ENV", "development"),
		JWTSecret:            getEnv("JWT_SECRET", "secret"),
		BootstrapUser:        getEnv("BOOTSTRAP_USER", ""),
		BootstrapPassword:    getEnv("BOOTSTRAP_PASSWORD", ""),
		WebhookURL:           getEnv("WEBHOOK_URL", ""),
		ClockCheckpointTicks: getEnvInt("CLOCK_CHECKPOINT_TICKS", 30),
	}
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable or returns a fallback
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
