package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Client side
	BackendURL     string
	WSURL          string
	StoreBackend   string // "memory", "file" or "redis"
	StorePath      string
	RedisAddr      string
	RedisNamespace string
	PollInterval   time.Duration

	// Development backend
	Port        string
	DatabaseURL string

	// Invoice archive
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	GoEnv string
}

var instance *Config

// Load loads the configuration from environment variables.
// It automatically determines which .env file to load based on GO_ENV.
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		BackendURL:         getEnv("TERRA_BACKEND_URL", "http://localhost:8080"),
		WSURL:              getEnv("TERRA_WS_URL", "ws://localhost:8080"),
		StoreBackend:       getEnv("TERRA_STORE_BACKEND", "file"),
		StorePath:          getEnv("TERRA_STORE_PATH", ""),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisNamespace:     getEnv("TERRA_DEVICE_ID", "terra-device"),
		PollInterval:       time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 20)) * time.Second,
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		GoEnv:              getEnv("GO_ENV", "development"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	instance = config
	return config, nil
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("TERRA_STORE_BACKEND must be memory, file or redis, got %q", c.StoreBackend)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// GetConfig returns the loaded configuration, loading it on first use
func GetConfig() *Config {
	if instance == nil {
		cfg, err := Load()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		instance = cfg
	}
	return instance
}

// SetConfig replaces the loaded configuration (primarily for testing)
func SetConfig(c *Config) {
	instance = c
}

// ArchiveConfigured reports whether the S3 invoice archive is usable
func (c *Config) ArchiveConfigured() bool {
	return c.AWSS3Bucket != "" && c.AWSAccessKeyID != ""
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or the default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
