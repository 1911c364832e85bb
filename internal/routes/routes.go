package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/coinledger/internal/config"
	"github.com/congo-pay/coinledger/internal/identity"
	"github.com/congo-pay/coinledger/internal/ledger"
	"github.com/congo-pay/coinledger/internal/middleware"
	"github.com/congo-pay/coinledger/internal/payments"
	"github.com/congo-pay/coinledger/internal/queue"
	"github.com/congo-pay/coinledger/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. DB, Cache and
// NATS are optional and only consulted by the health check and middleware.
type Deps struct {
	Cfg    config.Config
	Store  ledger.Store
	Queue  queue.Queue
	DB     *pgxpool.Pool
	Cache  *redis.Client
	NATS   *nats.Conn
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil {
		return fmt.Errorf("ledger store is required")
	}
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	identityHandler := identity.NewHandler(identity.NewService(d.Store))
	walletHandler := wallet.NewHandler(wallet.NewService(d.Store))
	var enqueuer payments.Enqueuer
	if d.Queue != nil {
		enqueuer = d.Queue
	}
	paymentHandler := payments.NewHandler(payments.NewService(d.Store, enqueuer, d.Logger))

	api := app.Group("/api/v1")
	api.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterIdentityRoutes(api, identityHandler)
	RegisterWalletRoutes(api, walletHandler)
	RegisterPaymentRoutes(api, paymentHandler, middleware.SubmitRateLimit(d.Cache, d.Cfg.SubmitRatePerMin, d.Logger))

	return nil
}
