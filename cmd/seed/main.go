package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"coworking/internal/config"
	"coworking/internal/database"
	"coworking/internal/domain"
	"coworking/internal/logging"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	demoOwnerA int64 = 300
	demoOwnerB int64 = 301
	demoAdmin  int64 = 1
)

func main() {
	dsn := flag.String("dsn", "coworking.db", "database DSN (postgres:// or SQLite path)")
	reset := flag.Bool("reset", false, "delete existing bookings, refunds, slots, promotions and rooms first")
	flag.Parse()

	logger, _, err := logging.New(config.LoggingConfig{Format: "console"}, config.AppConfig{Name: "seed"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(*dsn, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connection failed")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}

	if *reset {
		logger.Info().Msg("cleaning old data")
		// Children first.
		for _, table := range []string{"promotion_usages", "refund_requests", "payments", "blocked_time_slots", "bookings", "promotions", "rooms"} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				logger.Fatal().Err(err).Str("table", table).Msg("cleanup failed")
			}
		}
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := seedRooms(tx); err != nil {
			return err
		}
		return seedPromotions(tx)
	}); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
	logger.Info().Msg("seed completed")
}

func seedRooms(tx *gorm.DB) error {
	rooms := []domain.Room{
		{OwnerID: demoOwnerA, Name: "Focus Pod 1", Description: "Single desk with a door", Capacity: 1, HourlyRate: 8, DailyRate: 45, MonthlyRate: 600, Currency: "USD"},
		{OwnerID: demoOwnerA, Name: "Focus Pod 2", Description: "Single desk with a door", Capacity: 1, HourlyRate: 8, DailyRate: 45, MonthlyRate: 600, Currency: "USD"},
		{OwnerID: demoOwnerA, Name: "Meeting Room Alpha", Description: "Screen and whiteboard", Capacity: 6, HourlyRate: 25, DailyRate: 150, Currency: "USD"},
		{OwnerID: demoOwnerB, Name: "Board Room", Description: "Conference table for twelve", Capacity: 12, HourlyRate: 60, DailyRate: 380, Currency: "USD"},
		{OwnerID: demoOwnerB, Name: "Event Hall", Description: "Open floor with a stage", Capacity: 80, HourlyRate: 150, DailyRate: 900, Currency: "USD"},
	}
	for i := range rooms {
		rooms[i].IsActive = true
		if err := tx.Where(domain.Room{OwnerID: rooms[i].OwnerID, Name: rooms[i].Name}).FirstOrCreate(&rooms[i]).Error; err != nil {
			return fmt.Errorf("room %q: %w", rooms[i].Name, err)
		}
	}
	return nil
}

func seedPromotions(tx *gorm.DB) error {
	now := time.Now().UTC().Truncate(time.Second)
	ownerB := demoOwnerB
	promos := []domain.Promotion{
		{
			Code:          "WELCOME10",
			Description:   "10% off any room",
			DiscountType:  domain.DiscountPercentage,
			DiscountValue: 0.10,
			StartDate:     now.AddDate(0, 0, -1),
			EndDate:       now.AddDate(0, 3, 0),
			UsageLimit:    500,
			IsActive:      true,
			CreatedBy:     demoAdmin,
		},
		{
			Code:          "BOARD25",
			Description:   "25 off bookings of 100 or more in owner B rooms",
			DiscountType:  domain.DiscountFixed,
			DiscountValue: 25,
			MinimumAmount: 100,
			StartDate:     now,
			EndDate:       now.AddDate(0, 1, 0),
			UsageLimit:    20,
			OwnerID:       &ownerB,
			CreatedBy:     ownerB,
		},
	}

	// Upsert by code so reruns refresh the windows.
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "discount_value", "minimum_amount", "start_date", "end_date", "usage_limit", "updated_at"}),
	}).Create(&promos).Error
}
