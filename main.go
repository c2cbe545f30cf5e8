package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danhyun/simpleshop/internal/blob/s3"
	"github.com/danhyun/simpleshop/internal/config"
	"github.com/danhyun/simpleshop/internal/handler"
	"github.com/danhyun/simpleshop/internal/repository/sqlite"
	"github.com/danhyun/simpleshop/internal/service"
	"github.com/danhyun/simpleshop/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)

	blobs, err := s3.New(ctx, cfg)
	if err != nil {
		slog.Error("configure object storage", "error", err)
		os.Exit(1)
	}

	imageService := service.NewImageService(db.Products(), blobs)
	productService := service.NewProductService(db.Products(), imageService)
	authService := service.NewAuthService(db.Users(), sessions, service.NewBcryptHasher(cfg.BcryptCost))

	if cfg.SeedDemoUsers {
		if err := authService.SeedDemoUsers(ctx); err != nil {
			slog.Error("seed demo users", "error", err)
			os.Exit(1)
		}
	}

	router := handler.NewRouter(authService, productService, imageService, sessions, db.Users(), cfg.SessionTTL)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
