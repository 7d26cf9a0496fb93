package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// postmarkBatchMax is the largest batch the provider accepts per call.
const postmarkBatchMax = 500

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Postmark PostmarkConfig
	Send     SendConfig
	Env      string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	// PublicBaseURL is the externally reachable root used to build
	// unsubscribe links, e.g. https://mail.example.ch
	PublicBaseURL string
	// MetricsPort is where the worker exposes its scrape endpoint; the
	// API serves /metrics on the main port
	MetricsPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RabbitMQConfig holds RabbitMQ configuration
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// PostmarkConfig holds the email provider configuration
type PostmarkConfig struct {
	ServerToken   string
	WebhookSecret string
	BaseURL       string
	// Sandbox swaps the real provider for the in-process one that
	// accepts everything. Used in development and tests.
	Sandbox bool
}

// SendConfig holds batch dispatch tuning
type SendConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
			MetricsPort:   getEnv("METRICS_PORT", "9091"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "praxismail"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "praxismail_db"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_DEFAULT_USER", "guest"),
			Password: getEnv("RABBITMQ_DEFAULT_PASS", "guest"),
		},
		Postmark: PostmarkConfig{
			ServerToken:   getEnv("POSTMARK_SERVER_TOKEN", ""),
			WebhookSecret: getEnv("POSTMARK_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("POSTMARK_API_URL", "https://api.postmarkapp.com"),
			Sandbox:       getEnvAsBool("POSTMARK_SANDBOX", false),
		},
		Send: SendConfig{
			BatchSize:  getEnvAsInt("SEND_BATCH_SIZE", 100),
			BatchDelay: time.Duration(getEnvAsInt("SEND_BATCH_DELAY_MS", 1000)) * time.Millisecond,
		},
		Env: getEnv("ENV", "development"),
	}

	// Validate required fields
	if config.Database.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if config.Postmark.ServerToken == "" && !config.Postmark.Sandbox {
		return nil, fmt.Errorf("POSTMARK_SERVER_TOKEN is required (or set POSTMARK_SANDBOX=true)")
	}

	if config.Send.BatchSize <= 0 {
		config.Send.BatchSize = 100
	}
	if config.Send.BatchSize > postmarkBatchMax {
		config.Send.BatchSize = postmarkBatchMax
	}
	if config.Send.BatchDelay < 0 {
		config.Send.BatchDelay = 0
	}

	return config, nil
}

// GetDatabaseDSN returns PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// GetRabbitMQURL returns RabbitMQ connection URL
func (c *Config) GetRabbitMQURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		c.RabbitMQ.User,
		c.RabbitMQ.Password,
		c.RabbitMQ.Host,
		c.RabbitMQ.Port,
	)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets environment variable as boolean or returns default
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
