package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	StorageBackend string
	AWSRegion      string
	DynamoDBTable  string
	IndexName      string // GSI1 - lookups by secondary key
	EventBusName   string
	SeedFile       string

	// Cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// WebSocket configuration
	WebSocketEndpoint string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration

	// Rate limiting
	IPRequestsPerMinute   int
	UserRequestsPerMinute int

	// BYOK
	SealingKey string

	// Billing
	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePriceIDPro     string
	StripePriceIDPremium string
	AppBaseURL           string

	// Feature flags
	EnableMetrics    bool
	EnableTracing    bool
	EnableCORS       bool
	MetricsNamespace string
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageDynamoDB),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		DynamoDBTable:  getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "prepcoach")),
		IndexName:      getEnv("INDEX_NAME", "GSI1"),
		EventBusName:   getEnv("EVENT_BUS_NAME", "prepcoach-events"),
		SeedFile:       getEnv("SEED_FILE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 10*time.Minute),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "prepcoach"),
		JWTAudience: getEnv("JWT_AUDIENCE", ""),
		JWTExpiry:   getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		IPRequestsPerMinute:   getEnvInt("IP_REQUESTS_PER_MINUTE", 120),
		UserRequestsPerMinute: getEnvInt("USER_REQUESTS_PER_MINUTE", 60),

		SealingKey: getEnv("SEALING_KEY", ""),

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDPro:     getEnv("STRIPE_PRICE_ID_PRO", ""),
		StripePriceIDPremium: getEnv("STRIPE_PRICE_ID_PREMIUM", ""),
		AppBaseURL:           getEnv("APP_BASE_URL", "http://localhost:3000"),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", false),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		EnableCORS:       getEnvBool("ENABLE_CORS", true),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "PrepCoach"),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	if cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "development-secret-change-me"
		}
		if cfg.SealingKey == "" {
			cfg.SealingKey = "development-sealing-key"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageDynamoDB, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", StorageDynamoDB, StorageMemory)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.SealingKey == "" {
			return fmt.Errorf("SEALING_KEY is required in production")
		}
		if c.StorageBackend == StorageDynamoDB && c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if c.StripeSecretKey == "" || c.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration parses a Go duration such as "15m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
