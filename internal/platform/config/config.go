package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Built from environment
// variables so main stays lean; business logic never reads the environment.
type Config struct {
	Addr          string
	JWTSigningKey string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Queue    QueueConfig
	SMTP     SMTPConfig
}

// PostgresConfig holds the relational store connection settings.
// An empty DSN means Postgres is not configured and memory stores are used.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds queue/cache backend connection settings.
// An empty URL means Redis is not configured and the memory queue is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the optional domain-event bus transport settings.
// Empty Brokers means domain events stay on the in-process bus.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// QueueConfig holds retry and retention defaults for the durable job queue.
// These are configuration constants, not business logic.
type QueueConfig struct {
	MaxAttempts        int
	BackoffBase        time.Duration
	PollInterval       time.Duration
	JobTimeout         time.Duration
	GuardTTL           time.Duration
	CompletedRetention int
	FailedRetention    int
}

// SMTPConfig holds the email transport settings.
// An empty Host means email delivery runs in log-only mode.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	return Config{
		Addr:          envOr("SPONSORHUB_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Postgres: PostgresConfig{
			DSN:          os.Getenv("POSTGRES_DSN"),
			MaxOpenConns: envIntOr("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envIntOr("POSTGRES_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_DOMAIN_EVENTS_TOPIC", "sponsorhub.domain-events"),
			GroupID: envOr("KAFKA_GROUP_ID", "sponsorhub-pipeline"),
		},
		Queue: QueueConfig{
			MaxAttempts:        envIntOr("QUEUE_MAX_ATTEMPTS", 3),
			BackoffBase:        envDurationOr("QUEUE_BACKOFF_BASE", time.Second),
			PollInterval:       envDurationOr("QUEUE_POLL_INTERVAL", 250*time.Millisecond),
			JobTimeout:         envDurationOr("QUEUE_JOB_TIMEOUT", 30*time.Second),
			GuardTTL:           envDurationOr("QUEUE_GUARD_TTL", 24*time.Hour),
			CompletedRetention: envIntOr("QUEUE_COMPLETED_RETENTION", 100),
			FailedRetention:    envIntOr("QUEUE_FAILED_RETENTION", 200),
		},
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: envIntOr("SMTP_PORT", 587),
			From: envOr("SMTP_FROM", "no-reply@sponsorhub.local"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
