package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName          = "CoinLedger"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultPollTimeout      = 2 * time.Second
	defaultQueueCapacity    = 1024
	defaultSubmitRatePerMin = 60
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	pollSecondsEnvVar       = "PROCESSOR_POLL_TIMEOUT_SECONDS"
	pollDurationEnvVar      = "PROCESSOR_POLL_TIMEOUT"
)

// Queue backends understood by QUEUE_BACKEND.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
	QueueNATS   = "nats"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName     string
	AppEnv      string
	Port        string
	LogLevel    string
	DatabaseURL string
	RedisURL    string
	NATSURL     string

	QueueBackend  string
	QueueName     string
	QueueCapacity int

	ProcessorEnabled bool
	PollTimeout      time.Duration
	ProcessorDelay   time.Duration

	ShutdownPeriod   time.Duration
	IdempotencyTTL   time.Duration
	SubmitRatePerMin int
	SeedDemoData     bool
}

// Load reads an optional .env file, then configuration values from the
// environment, and populates a Config instance.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		NATSURL:          os.Getenv("NATS_URL"),
		QueueBackend:     strings.ToLower(getEnv("QUEUE_BACKEND", QueueMemory)),
		QueueName:        os.Getenv("QUEUE_NAME"),
		QueueCapacity:    defaultQueueCapacity,
		ProcessorEnabled: true,
		SubmitRatePerMin: defaultSubmitRatePerMin,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.PollTimeout, err = durationEnv(pollSecondsEnvVar, pollDurationEnvVar, defaultPollTimeout); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("PROCESSOR_DELAY"); v != "" {
		if cfg.ProcessorDelay, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("invalid PROCESSOR_DELAY: %w", err)
		}
	}
	if cfg.ProcessorEnabled, err = boolEnv("PROCESSOR_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.SeedDemoData, err = boolEnv("SEED_DEMO_DATA", false); err != nil {
		return Config{}, err
	}
	if cfg.QueueCapacity, err = intEnv("QUEUE_CAPACITY", defaultQueueCapacity); err != nil {
		return Config{}, err
	}
	if cfg.SubmitRatePerMin, err = intEnv("SUBMIT_RATE_PER_MIN", defaultSubmitRatePerMin); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PollTimeout <= 0 {
		return fmt.Errorf("processor poll timeout must be positive")
	}

	switch c.QueueBackend {
	case QueueMemory:
	case QueueRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set for the redis queue backend")
		}
	case QueueNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("NATS_URL must be set for the nats queue backend")
		}
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q", c.QueueBackend)
	}

	if c.IsDevelopment() {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	return nil
}

// IsDevelopment reports whether in-memory fallbacks are allowed.
func (c Config) IsDevelopment() bool {
	switch c.AppEnv {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv prefers the integer seconds variable over the Go duration one.
func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
