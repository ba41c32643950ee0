package repository

import (
	"context"

	"coworking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return translate(r.db.WithContext(ctx).Create(b).Error, "booking")
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, translate(err, "booking")
	}
	return &b, nil
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error
	if err != nil {
		return nil, translate(err, "booking")
	}
	return &b, nil
}

func (r *BookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&b).Error; err != nil {
		return nil, translate(err, "booking")
	}
	return &b, nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

// CountOverlapping counts bookings that still hold the room and strictly
// overlap iv. excludeID skips one booking (0 skips none).
func (r *BookingRepository) CountOverlapping(ctx context.Context, roomID int64, iv domain.Interval, excludeID int64) (int64, error) {
	var cnt int64
	err := r.overlapping(ctx, roomID, iv, excludeID).Model(&domain.Booking{}).Count(&cnt).Error
	return cnt, err
}

func (r *BookingRepository) ListOverlapping(ctx context.Context, roomID int64, iv domain.Interval) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.overlapping(ctx, roomID, iv, 0).Order("start_time").Find(&out).Error
	return out, err
}

func (r *BookingRepository) overlapping(ctx context.Context, roomID int64, iv domain.Interval, excludeID int64) *gorm.DB {
	q := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("status IN ?", domain.BlockingBookingStatuses()).
		Where("start_time < ? AND end_time > ?", iv.End, iv.Start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return q
}

func (r *BookingRepository) Update(ctx context.Context, id int64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "booking")
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("booking")
	}
	return nil
}

// UpdateFromStatus applies fields only while the booking is in one of the
// given statuses and reports whether a row changed.
func (r *BookingRepository) UpdateFromStatus(ctx context.Context, id int64, from []domain.BookingStatus, fields map[string]any) (bool, error) {
	names := make([]string, 0, len(from))
	for _, s := range from {
		names = append(names, s.String())
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status IN ?", id, names).
		Updates(fields)
	if res.Error != nil {
		return false, translate(res.Error, "booking")
	}
	return res.RowsAffected > 0, nil
}
