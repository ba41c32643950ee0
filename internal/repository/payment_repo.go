package repository

import (
	"context"

	"coworking/internal/domain"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error, "payment")
}

func (r *PaymentRepository) GetByReference(ctx context.Context, provider, reference string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).Where("provider = ? AND reference = ?", provider, reference).First(&p).Error
	if err != nil {
		return nil, translate(err, "payment")
	}
	return &p, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id").Find(&out).Error
	return out, err
}
