package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const submitRatePrefix = "coinledger:rl:submit:"

// SubmitRateLimit caps transfer submissions per source user (or client IP
// when the body carries none) within a one minute window. It is a no-op
// without Redis and fails open on cache errors.
func SubmitRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 60
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}

		var req struct {
			SourceUserID int64 `json:"source_user_id"`
		}
		_ = c.BodyParser(&req)
		subject := "ip:" + c.IP()
		if req.SourceUserID > 0 {
			subject = "user:" + strconv.FormatInt(req.SourceUserID, 10)
		}
		key := submitRatePrefix + subject

		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Warn("submit rate limit unavailable", slog.Any("error", err))
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many transfer submissions, try again later")
		}
		return c.Next()
	}
}
