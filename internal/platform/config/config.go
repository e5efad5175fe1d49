package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "trustgate/pkg/platform/strings"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	// SweepSecretHash is the bcrypt hash of the shared secret the scheduler
	// presents when triggering a sweep.
	SweepSecretHash string

	// SweepChunkSize bounds how many due purchases a single sweep iteration
	// loads, keeping runs resilient to large backlogs.
	SweepChunkSize int

	Redis    RedisConfig
	Kafka    KafkaConfig
	AIReview AIReviewConfig
	Checkout CheckoutConfig
}

// RedisConfig holds Redis connection tuning.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the payment-confirmation consumer settings.
type KafkaConfig struct {
	Brokers      []string
	Group        string
	PaymentTopic string
}

// AIReviewConfig points at the external document-analysis service.
type AIReviewConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CheckoutConfig points at the payment provider's checkout API.
type CheckoutConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// WebhookSecret verifies the provider's webhook signatures. Empty
	// disables verification for local development.
	WebhookSecret string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:            envOr("TRUSTGATE_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SweepSecretHash: os.Getenv("SWEEP_SECRET_HASH"),
		SweepChunkSize:  envInt("SWEEP_CHUNK_SIZE", 100),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(os.Getenv("KAFKA_BROKERS")),
			Group:        envOr("KAFKA_GROUP", "trustgate-payments"),
			PaymentTopic: envOr("KAFKA_PAYMENT_TOPIC", "payment.confirmations"),
		},
		AIReview: AIReviewConfig{
			BaseURL: os.Getenv("AI_REVIEW_URL"),
			APIKey:  os.Getenv("AI_REVIEW_API_KEY"),
			Timeout: envDuration("AI_REVIEW_TIMEOUT", 10*time.Second),
		},
		Checkout: CheckoutConfig{
			BaseURL:       os.Getenv("CHECKOUT_URL"),
			APIKey:        os.Getenv("CHECKOUT_API_KEY"),
			Timeout:       envDuration("CHECKOUT_TIMEOUT", 10*time.Second),
			WebhookSecret: os.Getenv("CHECKOUT_WEBHOOK_SECRET"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}
