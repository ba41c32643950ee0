package repository

import (
	"context"
	"errors"
	"strings"

	"coworking/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repos groups the repositories bound to one gorm handle, either the root
// connection or an open transaction.
type Repos struct {
	db         *gorm.DB
	Rooms      *RoomRepository
	Bookings   *BookingRepository
	Slots      *SlotRepository
	Promotions *PromotionRepository
	Refunds    *RefundRepository
	Payments   *PaymentRepository
}

func New(db *gorm.DB) *Repos {
	return &Repos{
		db:         db,
		Rooms:      NewRoomRepository(db),
		Bookings:   NewBookingRepository(db),
		Slots:      NewSlotRepository(db),
		Promotions: NewPromotionRepository(db),
		Refunds:    NewRefundRepository(db),
		Payments:   NewPaymentRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
func (r *Repos) Transaction(ctx context.Context, fn func(tx *Repos) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func (r *Repos) DB() *gorm.DB { return r.db }

// translate maps driver errors onto domain error kinds.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity)
	}
	if isConflict(err) {
		return &domain.Error{Kind: domain.ErrConflict, Message: entity + " conflicts with an existing record", Cause: err}
	}
	return err
}

// isConflict recognizes unique (23505) and exclusion (23P01) violations.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
