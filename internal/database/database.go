package database

import (
	"fmt"
	"strings"

	"coworking/internal/domain"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Connect opens PostgreSQL for postgres:// DSNs and SQLite (pure Go driver) for anything else.
func Connect(dsn string, log *zerolog.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if isPostgres(dsn) {
		log.Info().Msg("connecting to PostgreSQL")
		return gorm.Open(postgres.Open(dsn), gcfg)
	}

	log.Info().Str("dsn", dsn).Msg("using SQLite for local development")

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		gcfg,
	)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer; a single connection turns lock contention into queueing.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates the schema and the constraints AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Room{},
		&domain.Booking{},
		&domain.BlockedTimeSlot{},
		&domain.Promotion{},
		&domain.PromotionUsage{},
		&domain.Payment{},
		&domain.RefundRequest{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	active := "'" + strings.Join(domain.ActiveRefundStatuses(), "','") + "'"
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_refund_one_active ON refund_requests (booking_id) WHERE status IN (` + active + `)`).Error; err != nil {
		return fmt.Errorf("create refund index: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := migratePostgres(db); err != nil {
			return err
		}
	}
	return nil
}

func migratePostgres(db *gorm.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'excl_slots_no_overlap') THEN
		ALTER TABLE blocked_time_slots ADD CONSTRAINT excl_slots_no_overlap
			EXCLUDE USING gist (room_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&);
	END IF;
END $$`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("postgres migration: %w", err)
		}
	}
	return nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
