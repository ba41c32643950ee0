package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coworking/internal/config"
	"coworking/internal/database"
	"coworking/internal/events"
	"coworking/internal/lock"
	"coworking/internal/logging"
	"coworking/internal/metrics"
	"coworking/internal/pkg/clock"
	"coworking/internal/repository"
	"coworking/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config; environment variables are used when empty")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	db, err := database.Connect(cfg.Database.DSN, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Msg("database migrated")
	}

	locker, err := newLocker(cfg.Redis, logger)
	if err != nil {
		return err
	}

	metrics.Register()
	bus := events.NewEventBus()
	events.AttachAudit(bus, logger)
	events.AttachMetrics(bus)

	if cfg.Gateway.Sandbox() {
		logger.Warn().Msg("no gateway base_url configured, refunds use the sandbox gateway")
	}

	gin.SetMode(cfg.HTTP.Mode)
	app := server.New(server.Deps{
		Config:  cfg,
		Repos:   repository.New(db),
		Locker:  locker,
		Gateway: server.NewGateway(cfg.Gateway),
		Clock:   clock.System{},
		Bus:     bus,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.RequestTimeout,
		WriteTimeout:      cfg.HTTP.RequestTimeout + cfg.Gateway.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

// newLocker uses Redis when configured so replicas share room locks.
func newLocker(cfg config.RedisConfig, logger *zerolog.Logger) (lock.Locker, error) {
	if cfg.Address == "" {
		logger.Info().Msg("redis not configured, using in-process room locks")
		return lock.NewLocalLocker(), nil
	}
	client := lock.NewRedisClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lock.Ping(ctx, client); err != nil {
		return nil, err
	}
	logger.Info().Str("addr", cfg.Address).Msg("using redis room locks")
	return lock.NewRedisLocker(client, cfg.LockTTL, lock.DefaultRetryPolicy(), logger), nil
}
