package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"coworking/internal/config"
	"coworking/internal/database"
	"coworking/internal/logging"
	"coworking/internal/pkg/clock"
	"coworking/internal/repository"
	"coworking/internal/server"
)

// Lists refund requests whose owner approval window has lapsed, so staff
// can process them as approved by timeout.
func main() {
	configPath := flag.String("config", "", "path to YAML config; environment variables are used when empty")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath == "" {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	db, err := database.Connect(cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}

	app := server.New(server.Deps{
		Config:  cfg,
		Repos:   repository.New(db),
		Gateway: server.NewGateway(cfg.Gateway),
		Clock:   clock.System{},
		Logger:  logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	overdue, err := app.Refunds.ListOverdue(ctx, now)
	if err != nil {
		logger.Fatal().Err(err).Msg("list overdue refunds failed")
	}

	for _, r := range overdue {
		logger.Info().
			Int64("refund_id", r.ID).
			Int64("booking_id", r.BookingID).
			Int64("owner_id", r.OwnerID).
			Time("requested_at", r.RequestedAt).
			Dur("waiting", now.Sub(r.RequestedAt)).
			Float64("amount", r.RefundAmount).
			Str("currency", r.Currency).
			Msg("refund awaiting timeout processing")
	}
	logger.Info().Int("count", len(overdue)).Dur("owner_timeout", app.Refunds.Policy().OwnerApprovalTimeout).Msg("refund overdue scan completed")
}
