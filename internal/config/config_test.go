package config

import (
	"testing"
	"time"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QueueBackend != QueueMemory {
		t.Fatalf("expected memory queue, got %q", cfg.QueueBackend)
	}
	if cfg.PollTimeout != 2*time.Second {
		t.Fatalf("expected 2s poll timeout, got %s", cfg.PollTimeout)
	}
	if !cfg.ProcessorEnabled {
		t.Fatalf("processor should be enabled by default")
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadRequiresStoresOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/coinledger")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PROCESSOR_POLL_TIMEOUT_SECONDS", "5")
	t.Setenv("PROCESSOR_POLL_TIMEOUT", "1m")
	t.Setenv("PROCESSOR_DELAY", "250ms")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollTimeout != 5*time.Second {
		t.Fatalf("seconds variable should win, got %s", cfg.PollTimeout)
	}
	if cfg.ProcessorDelay != 250*time.Millisecond {
		t.Fatalf("unexpected delay %s", cfg.ProcessorDelay)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("unexpected shutdown period %s", cfg.ShutdownPeriod)
	}
}

func TestLoadQueueBackendValidation(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("REDIS_URL", "")
	t.Setenv("QUEUE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatalf("redis backend without REDIS_URL should fail")
	}

	t.Setenv("QUEUE_BACKEND", "kafka")
	if _, err := Load(); err == nil {
		t.Fatalf("unknown backend should fail")
	}

	t.Setenv("QUEUE_BACKEND", "NATS")
	t.Setenv("NATS_URL", "nats://127.0.0.1:4222")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QueueBackend != QueueNATS {
		t.Fatalf("backend should be normalised, got %q", cfg.QueueBackend)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PROCESSOR_ENABLED", "maybe")
	if _, err := Load(); err == nil {
		t.Fatalf("expected bool parse error")
	}
}
