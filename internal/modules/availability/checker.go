package availability

import (
	"context"
	"fmt"
	"time"

	"coworking/internal/domain"
)

type SlotReader interface {
	ListOverlapping(ctx context.Context, roomID int64, iv domain.Interval, excludeBookingID int64) ([]domain.BlockedTimeSlot, error)
}

type BookingReader interface {
	CountOverlapping(ctx context.Context, roomID int64, iv domain.Interval, excludeID int64) (int64, error)
	ListOverlapping(ctx context.Context, roomID int64, iv domain.Interval) ([]domain.Booking, error)
}

// Checker answers whether a room is free for an interval. Writers build one
// from transaction-bound readers so the check and the write share a transaction.
type Checker struct {
	slots    SlotReader
	bookings BookingReader
}

func NewChecker(slots SlotReader, bookings BookingReader) *Checker {
	return &Checker{slots: slots, bookings: bookings}
}

// IsAvailable reports whether iv is free of blocked slots and of bookings that
// still hold the room. Touching endpoints do not overlap.
func (c *Checker) IsAvailable(ctx context.Context, roomID int64, iv domain.Interval) (bool, error) {
	return c.IsAvailableExcept(ctx, roomID, iv, 0)
}

// IsAvailableExcept ignores the given booking and its slots, for moving a
// booking within its own footprint.
func (c *Checker) IsAvailableExcept(ctx context.Context, roomID int64, iv domain.Interval, bookingID int64) (bool, error) {
	slots, err := c.slots.ListOverlapping(ctx, roomID, iv, bookingID)
	if err != nil {
		return false, fmt.Errorf("list blocked slots: %w", err)
	}
	if len(slots) > 0 {
		return false, nil
	}
	n, err := c.bookings.CountOverlapping(ctx, roomID, iv, bookingID)
	if err != nil {
		return false, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return n == 0, nil
}

// Busy returns the merged busy intervals of the room clipped to window.
func (c *Checker) Busy(ctx context.Context, roomID int64, window domain.Interval) ([]domain.Interval, error) {
	slots, err := c.slots.ListOverlapping(ctx, roomID, window, 0)
	if err != nil {
		return nil, fmt.Errorf("list blocked slots: %w", err)
	}
	bookings, err := c.bookings.ListOverlapping(ctx, roomID, window)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	busy := make([]domain.Interval, 0, len(slots)+len(bookings))
	for _, s := range slots {
		busy = append(busy, s.Interval())
	}
	for _, b := range bookings {
		busy = append(busy, b.Interval())
	}
	return mergeBusy(window, busy), nil
}

// FreeWindows lists the free parts of day between the opening and closing hours (UTC).
func (c *Checker) FreeWindows(ctx context.Context, roomID int64, day time.Time, openHour, closeHour int) ([]domain.Interval, error) {
	if openHour < 0 || closeHour > 24 || closeHour <= openHour {
		return nil, domain.Validationf("invalid opening hours %d-%d", openHour, closeHour)
	}
	day = day.UTC()
	base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	window := domain.Interval{
		Start: base.Add(time.Duration(openHour) * time.Hour),
		End:   base.Add(time.Duration(closeHour) * time.Hour),
	}

	busy, err := c.Busy(ctx, roomID, window)
	if err != nil {
		return nil, err
	}
	return subtractBusy(window, busy), nil
}
