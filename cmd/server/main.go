// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"roamly/internal/config"
	"roamly/internal/database"
	"roamly/internal/domain/auth"
	"roamly/internal/domain/community"
	"roamly/internal/logging"
	"roamly/internal/repository"
	"roamly/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal("Failed to configure logging: ", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		stop()
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	db, err := database.New(ctx, cfg.DBUrl, cfg.Migrate, logger.With("logger", "db"))
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := initRedis(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	feed := community.NewFeed(redisClient, logger.With("logger", "feed"))
	authService := auth.NewAuthService(
		repository.NewUserRepository(db.Pool()),
		auth.NewAuthStore(redisClient),
		auth.NewValidator(validator.New()),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		auth.WithAnnouncer(feed),
		auth.WithLogger(logger.With("logger", "auth")),
	)

	srv, err := server.New(cfg, logger, db, server.Services{
		Accounts: authService,
		Auth:     authService,
		Feed:     feed,
	})
	if err != nil {
		return err
	}

	go func() {
		if err := db.Open(ctx); err != nil {
			cancel(fmt.Errorf("open database: %w", err))
		}
	}()

	err = srv.Start(ctx)
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func initRedis(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
