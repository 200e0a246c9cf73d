package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	// Queue
	UseMemoryQueue  bool
	WorkerCount     int
	BookingQueueURL string

	// Per-customer conversation state, stored in Redis. A zero TTL keeps
	// abandoned dialogues parked at their last step indefinitely.
	ConversationStateTTL time.Duration

	// WhatsApp Cloud API
	WhatsAppPhoneNumberID string
	WhatsAppAccessToken   string
	WhatsAppAPIVersion    string
	WhatsAppVerifyToken   string

	// Wompi payment gateway
	WompiPrivateKey  string
	WompiEnvironment string
	WompiCurrency    string

	// AWS (SQS queue backend)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		UseMemoryQueue:  getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:     getEnvAsInt("WORKER_COUNT", 2),
		BookingQueueURL: getEnv("BOOKING_QUEUE_URL", ""),

		ConversationStateTTL: getEnvAsDuration("CONVERSATION_STATE_TTL", 0),

		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppAPIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),

		WompiPrivateKey:  getEnv("WOMPI_PRIVATE_KEY", ""),
		WompiEnvironment: getEnv("WOMPI_ENVIRONMENT", "sandbox"),
		WompiCurrency:    getEnv("WOMPI_CURRENCY", "COP"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
