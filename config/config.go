package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL        string
	ServerPort         int
	StatementTimeoutMS int

	RegistrationIDPrefix string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file for local development.
func Load() (*Config, error) {
	// A missing .env file is not fatal.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	timeoutStr := os.Getenv("STATEMENT_TIMEOUT_MS")
	if timeoutStr == "" {
		// The hosted database can take a while to wake from idle.
		timeoutStr = "60000"
	}
	timeoutMS, err := strconv.Atoi(timeoutStr)
	if err != nil || timeoutMS <= 0 {
		return nil, fmt.Errorf("invalid STATEMENT_TIMEOUT_MS environment variable: %q", timeoutStr)
	}

	prefix := os.Getenv("REGISTRATION_ID_PREFIX")
	if prefix == "" {
		prefix = "MVLUHACK"
	}

	cfg := &Config{
		DatabaseURL:          dbURL,
		ServerPort:           port,
		StatementTimeoutMS:   timeoutMS,
		RegistrationIDPrefix: prefix,
		R2AccountID:          os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:        os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:    os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:         os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:      os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}
