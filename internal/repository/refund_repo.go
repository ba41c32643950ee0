package repository

import (
	"context"
	"errors"
	"time"

	"coworking/internal/domain"

	"gorm.io/gorm"
)

type RefundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ctx context.Context, req *domain.RefundRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error, "refund request")
}

func (r *RefundRepository) GetByID(ctx context.Context, id int64) (*domain.RefundRequest, error) {
	var req domain.RefundRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, translate(err, "refund request")
	}
	return &req, nil
}

// GetActiveByBooking returns the booking's non-terminal request, or nil.
func (r *RefundRepository) GetActiveByBooking(ctx context.Context, bookingID int64) (*domain.RefundRequest, error) {
	var req domain.RefundRequest
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status IN ?", bookingID, domain.ActiveRefundStatuses()).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RefundRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.RefundRequest, error) {
	var out []domain.RefundRequest
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id").Find(&out).Error
	return out, err
}

func (r *RefundRepository) ListPendingForOwner(ctx context.Context, ownerID int64) ([]domain.RefundRequest, error) {
	var out []domain.RefundRequest
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, domain.RefundPendingOwnerApproval.String()).
		Order("requested_at").
		Find(&out).Error
	return out, err
}

// ListPendingSince returns requests still awaiting the owner that were made at or before cutoff.
func (r *RefundRepository) ListPendingSince(ctx context.Context, cutoff time.Time) ([]domain.RefundRequest, error) {
	var out []domain.RefundRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND requested_at <= ?", domain.RefundPendingOwnerApproval.String(), cutoff).
		Order("requested_at").
		Find(&out).Error
	return out, err
}

// TransitionFrom applies fields only while the request is in the from status.
// A false result means another actor moved it first.
func (r *RefundRepository) TransitionFrom(ctx context.Context, id int64, from domain.RefundStatus, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.RefundRequest{}).
		Where("id = ? AND status = ?", id, from.String()).
		Updates(fields)
	if res.Error != nil {
		return false, translate(res.Error, "refund request")
	}
	return res.RowsAffected == 1, nil
}
