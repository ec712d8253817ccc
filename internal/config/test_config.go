package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration from the .env file or environment variables for integration tests
// If the TEST_DB_* variables are not set, returns a Config with an empty Database section
// which integration tests treat as "no database available"
func LoadTestConfig() (*Config, error) {
	// Try to load .env file from project root (optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Session.Secret = stringEnv("TEST_SESSION_SECRET", "integration-test-session-secret-0123456789")
	cfg.Session.TTL = sevenDays
	cfg.Password.Algorithm = "bcrypt"
	cfg.Password.BcryptCost = 4
	cfg.Password.MinLength = 1
	cfg.Reset.TokenTTL = oneHour
	cfg.AdminCode = os.Getenv("TEST_ADMIN_CODE")
	cfg.AI.FallbackOnly = true

	dbHost := os.Getenv("TEST_DB_HOST")
	if dbHost == "" {
		return cfg, nil
	}

	dbPortStr := stringEnv("TEST_DB_PORT", "3306")
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}

	cfg.Database = DatabaseConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     stringEnv("TEST_DB_USER", "root"),
		Password: stringEnv("TEST_DB_PASSWORD", "password"),
		DBName:   stringEnv("TEST_DB_NAME", "braille_test"),
	}

	return cfg, nil
}
