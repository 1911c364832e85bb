package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/congo-pay/coinledger/internal/config"
	"github.com/congo-pay/coinledger/internal/infra"
	"github.com/congo-pay/coinledger/internal/ledger"
	"github.com/congo-pay/coinledger/internal/logging"
	"github.com/congo-pay/coinledger/internal/notification"
	"github.com/congo-pay/coinledger/internal/processor"
	"github.com/congo-pay/coinledger/internal/queue"
	"github.com/congo-pay/coinledger/internal/routes"
	"github.com/congo-pay/coinledger/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName)
	if err := run(cfg, logger); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := routes.Deps{Cfg: cfg, Logger: logger}

	if cfg.DatabaseURL != "" {
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		store := ledger.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		deps.DB, deps.Store = db, store
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory ledger")
		deps.Store = ledger.NewInMemory()
	}

	if cfg.RedisURL != "" {
		cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		deps.Cache = cache
	}

	if cfg.QueueBackend == config.QueueNATS {
		nc, err := infra.NewNATSConn(cfg.NATSURL, cfg.AppName)
		if err != nil {
			return err
		}
		defer nc.Close()
		deps.NATS = nc
	}

	q, err := newQueue(cfg, deps.Cache, deps.NATS)
	if err != nil {
		return err
	}
	deps.Queue = q

	if cfg.SeedDemoData {
		if err := ledger.SeedDemo(ctx, deps.Store); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		logger.Info("demo data seeded")
	}

	srv, err := server.New(deps)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Listen(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.ProcessorEnabled {
		proc := processor.New(deps.Store, q, notification.NewLoggerNotifier(logger), logger, processor.Options{
			PollTimeout: cfg.PollTimeout,
			Delay:       cfg.ProcessorDelay,
		})
		g.Go(func() error { return proc.Run(gctx) })
	} else {
		logger.Info("transaction processor disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if cerr := q.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close queue: %w", cerr))
		}
		return err
	})

	return g.Wait()
}

func newQueue(cfg config.Config, cache *redis.Client, nc *nats.Conn) (queue.Queue, error) {
	switch cfg.QueueBackend {
	case config.QueueRedis:
		if cache == nil {
			return nil, fmt.Errorf("redis queue backend requires REDIS_URL")
		}
		return queue.NewRedis(cache, cfg.QueueName), nil
	case config.QueueNATS:
		return queue.NewNATS(nc, cfg.QueueName)
	default:
		return queue.NewMemory(cfg.QueueCapacity), nil
	}
}
