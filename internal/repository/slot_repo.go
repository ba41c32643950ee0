package repository

import (
	"context"

	"coworking/internal/domain"

	"gorm.io/gorm"
)

// SlotRepository is the blocked-slot ledger.
type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, s *domain.BlockedTimeSlot) error {
	return translate(r.db.WithContext(ctx).Create(s).Error, "blocked slot")
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.BlockedTimeSlot, error) {
	var s domain.BlockedTimeSlot
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translate(err, "blocked slot")
	}
	return &s, nil
}

// ListOverlapping returns slots on the room that strictly overlap iv,
// ignoring slots owned by excludeBookingID (0 ignores none).
func (r *SlotRepository) ListOverlapping(ctx context.Context, roomID int64, iv domain.Interval, excludeBookingID int64) ([]domain.BlockedTimeSlot, error) {
	q := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("start_time < ? AND end_time > ?", iv.End, iv.Start)
	if excludeBookingID != 0 {
		q = q.Where("booking_id IS NULL OR booking_id <> ?", excludeBookingID)
	}
	var out []domain.BlockedTimeSlot
	err := q.Order("start_time").Find(&out).Error
	return out, err
}

func (r *SlotRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.BlockedTimeSlot, error) {
	var out []domain.BlockedTimeSlot
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id").Find(&out).Error
	return out, err
}

// DeleteByBooking releases every slot tied to the booking.
func (r *SlotRepository) DeleteByBooking(ctx context.Context, bookingID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Delete(&domain.BlockedTimeSlot{})
	return res.RowsAffected, res.Error
}

func (r *SlotRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.BlockedTimeSlot{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("blocked slot")
	}
	return nil
}
