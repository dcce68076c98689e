package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/linkyhq/linky/internal/container"
	"github.com/linkyhq/linky/internal/messaging"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// The consumer worker drains the analytics topics. It shares the container
// packages with the server but wires only what a worker needs.
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	opts := &container.Options{
		RedisAddr: envOr("REDIS_ADDR", "localhost:6379"),
		LogFormat: envOr("LOG_FORMAT", "console"),
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Start(ctx); err != nil {
		logger.Error("failed to start consumer group", zap.Error(err))

		return err
	}

	<-ctx.Done()

	logger.Info("shutting down")

	redisClient := do.MustInvoke[*redis.Client](injector)

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))

		return err
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("redis close error", zap.Error(err))
	}

	logger.Info("shutdown complete")

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
