package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sigitwie/mysql-w9/internal/auth"
	"github.com/sigitwie/mysql-w9/internal/cache"
	"github.com/sigitwie/mysql-w9/internal/config"
	"github.com/sigitwie/mysql-w9/internal/router"
	"github.com/sigitwie/mysql-w9/internal/transactions"
	"github.com/sigitwie/mysql-w9/internal/users"
)

func main() {
	log := buildLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("error creating pgx pool", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal("error pinging database", zap.Error(err))
	}
	log.Info("connected to the database")

	provider, err := buildCacheProvider(ctx, cfg, log)
	if err != nil {
		log.Fatal("error setting up cache", zap.Error(err))
	}
	defer provider.Close(context.Background())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}

			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(router.CorsMiddleware(cfg.CORSOrigin))
	app.Use(requestLogger(log))
	app.Use(router.RateLimitWrite(cfg.RateLimit.Max, cfg.RateLimit.Window()))

	userRepo := users.NewRepo(pool)
	txnRepo := transactions.NewRepo(pool)

	r := &router.Router{
		Users:        users.NewHandler(userRepo, provider, cfg.Cache.TTL(), log),
		Transactions: transactions.NewHandler(txnRepo, provider, log),
	}
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		r.AuthMW = auth.Middleware([]byte(secret))
	}
	r.RegisterRoutes(app)

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn("shutdown failed", zap.Error(err))
	}
}

func buildLogger() *zap.Logger {
	if strings.EqualFold(os.Getenv("ENV"), "dev") {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}

// buildCacheProvider wires the aggregate cache: Redis by default, the
// in-process provider when configured for single-node runs.
func buildCacheProvider(ctx context.Context, cfg config.Config, log *zap.Logger) (cache.Provider, error) {
	if cfg.Cache.Backend == config.BackendMemory {
		log.Info("using in-process aggregate cache")
		return cache.NewMemoryProvider()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	return cache.NewRedisProvider(rdb)
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := uuid.NewString()
		c.Set("X-Request-Id", reqID)

		err := c.Next()

		log.Info("request",
			zap.String("request_id", reqID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}
