package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/coinledger/internal/logging"
)

func submit(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestSubmitRateLimitPerSourceUser(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/transactions", SubmitRateLimit(cache, 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	for i := 0; i < 2; i++ {
		if status := submit(t, app, `{"source_user_id":1}`); status != fiber.StatusAccepted {
			t.Fatalf("request %d: expected 202 got %d", i, status)
		}
	}
	if status := submit(t, app, `{"source_user_id":1}`); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", status)
	}
	if status := submit(t, app, `{"source_user_id":2}`); status != fiber.StatusAccepted {
		t.Fatalf("other users must not be limited, got %d", status)
	}
	if ttl := mr.TTL(submitRatePrefix + "user:1"); ttl <= 0 {
		t.Fatalf("expected window expiry on counter, got %s", ttl)
	}
}

func TestSubmitRateLimitFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer cache.Close()
	mr.Close()

	app := fiber.New()
	app.Post("/transactions", SubmitRateLimit(cache, 1, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	for i := 0; i < 3; i++ {
		if status := submit(t, app, `{"source_user_id":1}`); status != fiber.StatusAccepted {
			t.Fatalf("expected fail-open, got %d", status)
		}
	}
}
