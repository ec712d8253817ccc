// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database       DatabaseConfig
	Redis          RedisConfig
	Server         ServerConfig
	Logging        LoggingConfig
	CORS           CORSConfig
	Session        SessionConfig
	Password       PasswordConfig
	Reset          ResetConfig
	SMTP           SMTPConfig
	AI             AIConfig
	APIKey         string
	AdminCode      string
	RouteTablePath string
	WebRoot        string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to send the session cookie cross-origin.
	// "*" permits uncredentialed cross-origin reads only.
	AllowedOrigins []string
}

// SessionConfig holds session cookie settings
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	SecureCookie bool
	// Revocation selects the server-side revocation backend: "none" or "redis"
	Revocation string
}

// PasswordConfig holds password hashing and policy settings
type PasswordConfig struct {
	Algorithm  string
	BcryptCost int
	MinLength  int
}

// ResetConfig holds password reset settings
type ResetConfig struct {
	TokenTTL time.Duration
	URL      string
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// AIConfig holds settings of the external image processing backend
type AIConfig struct {
	BaseURL string
	Timeout time.Duration
	// FallbackOnly makes the client answer every call locally without contacting the backend
	FallbackOnly bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPort, err := intEnv("DB_PORT", "3306")
	if err != nil {
		return nil, err
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPort, err := intEnv("SERVER_PORT", "8080")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	cfg.Logging.Level = stringEnv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Session configuration
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if len(sessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters long")
	}
	cfg.Session.Secret = sessionSecret

	sessionTTL, err := durationEnv("SESSION_TTL", "168h") // 7 days
	if err != nil {
		return nil, err
	}
	cfg.Session.TTL = sessionTTL

	secureCookie, err := boolEnv("SESSION_SECURE_COOKIE", "true")
	if err != nil {
		return nil, err
	}
	cfg.Session.SecureCookie = secureCookie

	cfg.Session.Revocation = stringEnv("SESSION_REVOCATION", "none")
	if cfg.Session.Revocation != "none" && cfg.Session.Revocation != "redis" {
		return nil, fmt.Errorf("invalid SESSION_REVOCATION: %q (expected none or redis)", cfg.Session.Revocation)
	}

	// Password configuration
	cfg.Password.Algorithm = stringEnv("PASSWORD_HASH_ALGORITHM", "bcrypt")
	if cfg.Password.Algorithm != "bcrypt" && cfg.Password.Algorithm != "argon2id" {
		return nil, fmt.Errorf("invalid PASSWORD_HASH_ALGORITHM: %q (expected bcrypt or argon2id)", cfg.Password.Algorithm)
	}
	bcryptCost, err := intEnv("PASSWORD_BCRYPT_COST", "10")
	if err != nil {
		return nil, err
	}
	cfg.Password.BcryptCost = bcryptCost
	minLength, err := intEnv("PASSWORD_MIN_LENGTH", "8")
	if err != nil {
		return nil, err
	}
	cfg.Password.MinLength = minLength

	// Password reset configuration
	resetTTL, err := durationEnv("RESET_TOKEN_TTL", "1h")
	if err != nil {
		return nil, err
	}
	cfg.Reset.TokenTTL = resetTTL
	cfg.Reset.URL = stringEnv("RESET_URL", "http://localhost:3000/reset-password")

	// Shared secrets (optional; empty disables the feature)
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.AdminCode = os.Getenv("ADMIN_CODE")

	// Redis configuration (used by the mail queue and the optional revocation list)
	cfg.Redis.Host = stringEnv("REDIS_HOST", "localhost")
	redisPort, err := intEnv("REDIS_PORT", "6379")
	if err != nil {
		return nil, err
	}
	cfg.Redis.Port = redisPort
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional
	redisDB, err := intEnv("REDIS_DB", "0")
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = redisDB

	// SMTP configuration (used by the worker)
	cfg.SMTP.Host = stringEnv("SMTP_HOST", "localhost")
	smtpPort, err := intEnv("SMTP_PORT", "587")
	if err != nil {
		return nil, err
	}
	cfg.SMTP.Port = smtpPort
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME") // optional
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD") // optional
	cfg.SMTP.From = stringEnv("SMTP_FROM", "noreply@braille.local")

	// AI backend configuration
	cfg.AI.BaseURL = os.Getenv("AI_BACKEND_URL")
	aiTimeout, err := durationEnv("AI_BACKEND_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cfg.AI.Timeout = aiTimeout
	fallbackOnly, err := boolEnv("AI_FALLBACK_ONLY", "false")
	if err != nil {
		return nil, err
	}
	// Without a backend URL there is nothing to call
	cfg.AI.FallbackOnly = fallbackOnly || cfg.AI.BaseURL == ""

	cfg.RouteTablePath = os.Getenv("ROUTE_TABLE_PATH")
	cfg.WebRoot = os.Getenv("WEB_ROOT")

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	if c.Database.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the Redis address in host:port form
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key, def string) (int, error) {
	v, err := strconv.Atoi(stringEnv(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key, def string) (bool, error) {
	v, err := strconv.ParseBool(stringEnv(key, def))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key, def string) (time.Duration, error) {
	v, err := time.ParseDuration(stringEnv(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// parseOrigins parses comma-separated origins, defaulting to all origins
func parseOrigins(raw string) []string {
	if raw == "" {
		// Default to allow all origins if not specified (for development)
		return []string{"*"}
	}
	origins := strings.Split(raw, ",")
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}
	// If no valid origins found, default to allow all
	if len(allowed) == 0 {
		return []string{"*"}
	}
	return allowed
}

const (
	oneHour   = time.Hour
	sevenDays = 7 * 24 * time.Hour
)
