package booking

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"coworking/internal/domain"
	"coworking/internal/events"
	"coworking/internal/modules/availability"
	"coworking/internal/repository"
)

const amountTolerance = 0.005

type ConfirmPaymentInput struct {
	Code       string
	Provider   string
	PaymentRef string
	Amount     float64
	Currency   string
	ActorID    int64
}

// ConfirmPayment moves PendingPayment to Confirmed, records the payment and
// occupies the slot. It reports false when the booking was already confirmed.
func (s *Service) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (bool, error) {
	if strings.TrimSpace(in.Provider) == "" || strings.TrimSpace(in.PaymentRef) == "" {
		return false, domain.Validationf("provider and payment reference are required")
	}
	b, err := s.repos.Bookings.GetByCode(ctx, strings.TrimSpace(in.Code))
	if err != nil {
		return false, err
	}

	unlock, err := s.lockRoom(ctx, b.RoomID)
	if err != nil {
		return false, err
	}
	defer unlock()

	changed := false
	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		cur, err := tx.Bookings.GetByIDForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		switch cur.Status {
		case domain.BookingConfirmed:
			b = cur
			return nil
		case domain.BookingPendingPayment:
		default:
			return domain.StateConflict("booking", "confirm payment for", cur.Status)
		}

		if math.Abs(in.Amount-cur.FinalAmount) > amountTolerance {
			return domain.Validationf("paid amount %.2f does not match %.2f", in.Amount, cur.FinalAmount)
		}
		if !strings.EqualFold(in.Currency, cur.Currency) {
			return domain.Validationf("paid currency %s does not match %s", in.Currency, cur.Currency)
		}

		now := s.now()
		ref := in.PaymentRef
		ok, err := tx.Bookings.UpdateFromStatus(ctx, cur.ID, []domain.BookingStatus{domain.BookingPendingPayment}, map[string]any{
			"status":           domain.BookingConfirmed,
			"payment_provider": in.Provider,
			"payment_ref":      ref,
			"updated_at":       now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.StateConflict("booking", "confirm payment for", cur.Status)
		}

		if err := tx.Payments.Create(ctx, &domain.Payment{
			BookingID: cur.ID,
			Provider:  in.Provider,
			Reference: ref,
			Amount:    in.Amount,
			Currency:  cur.Currency,
			PaidAt:    now,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		slots, err := tx.Slots.ListByBooking(ctx, cur.ID)
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			if err := tx.Slots.Create(ctx, bookingSlot(cur, in.ActorID, now)); err != nil {
				return err
			}
		}

		cur.Status = domain.BookingConfirmed
		cur.PaymentProvider = in.Provider
		cur.PaymentRef = &ref
		b = cur
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if !changed {
		s.logger.Info().Int64("booking_id", b.ID).Str("payment_ref", in.PaymentRef).Msg("payment already confirmed")
		return false, nil
	}
	s.logger.Info().Int64("booking_id", b.ID).Str("provider", in.Provider).Str("payment_ref", in.PaymentRef).Msg("payment confirmed")
	s.publish(events.EventBookingConfirmed, b, in.ActorID, "")
	return true, nil
}

// FailPayment marks an unpaid booking Failed and frees its room.
func (s *Service) FailPayment(ctx context.Context, code, reason string) (bool, error) {
	b, err := s.repos.Bookings.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return false, err
	}

	unlock, err := s.lockRoom(ctx, b.RoomID)
	if err != nil {
		return false, err
	}
	defer unlock()

	changed := false
	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		cur, err := tx.Bookings.GetByIDForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		switch cur.Status {
		case domain.BookingFailed:
			return nil
		case domain.BookingPendingPayment:
		default:
			return domain.StateConflict("booking", "fail payment for", cur.Status)
		}

		ok, err := tx.Bookings.UpdateFromStatus(ctx, cur.ID, []domain.BookingStatus{domain.BookingPendingPayment}, map[string]any{
			"status":         domain.BookingFailed,
			"failure_reason": reason,
			"updated_at":     s.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.StateConflict("booking", "fail payment for", cur.Status)
		}
		if _, err := tx.Slots.DeleteByBooking(ctx, cur.ID); err != nil {
			return err
		}
		cur.Status = domain.BookingFailed
		cur.FailureReason = reason
		b = cur
		changed = true
		return nil
	})
	if err != nil || !changed {
		return false, err
	}

	s.logger.Info().Int64("booking_id", b.ID).Str("reason", reason).Msg("payment failed")
	s.publish(events.EventBookingFailed, b, 0, reason)
	return true, nil
}

// CancelBooking cancels a pending or confirmed booking and releases its slot.
// Staff and owners must give a reason. Cancelling twice reports false.
func (s *Service) CancelBooking(ctx context.Context, actor domain.Actor, code, reason string) (bool, error) {
	reason = strings.TrimSpace(reason)
	if actor.Role != domain.RoleClient && reason == "" {
		return false, domain.Validationf("a cancellation reason is required")
	}

	b, err := s.repos.Bookings.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return false, err
	}
	if err := s.authorize(ctx, actor, b); err != nil {
		return false, err
	}

	unlock, err := s.lockRoom(ctx, b.RoomID)
	if err != nil {
		return false, err
	}
	defer unlock()

	changed := false
	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		cur, err := tx.Bookings.GetByIDForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		switch cur.Status {
		case domain.BookingCancelled:
			return nil
		case domain.BookingPendingPayment, domain.BookingConfirmed:
		default:
			return domain.StateConflict("booking", "cancel", cur.Status)
		}

		active, err := tx.Refunds.GetActiveByBooking(ctx, cur.ID)
		if err != nil {
			return err
		}
		if active != nil {
			return domain.Conflictf("booking has an active refund request")
		}

		now := s.now()
		fields := map[string]any{
			"status":       domain.BookingCancelled,
			"cancelled_at": now,
			"updated_at":   now,
		}
		if reason != "" {
			fields["cancellation_reason"] = reason
		}
		ok, err := tx.Bookings.UpdateFromStatus(ctx, cur.ID, []domain.BookingStatus{domain.BookingPendingPayment, domain.BookingConfirmed}, fields)
		if err != nil {
			return err
		}
		if !ok {
			return domain.StateConflict("booking", "cancel", cur.Status)
		}
		if _, err := tx.Slots.DeleteByBooking(ctx, cur.ID); err != nil {
			return err
		}

		cur.Status = domain.BookingCancelled
		cur.CancelledAt = &now
		if reason != "" {
			cur.CancellationReason = &reason
		}
		b = cur
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	s.logger.Info().Int64("booking_id", b.ID).Int64("actor_id", actor.ID).Str("role", string(actor.Role)).Str("reason", reason).Msg("booking cancelled")
	s.publish(events.EventBookingCancelled, b, actor.ID, reason)
	return true, nil
}

// RescheduleBooking moves a confirmed booking to a new interval. The move is a
// saga: release the old slot, check the new interval, occupy it, move the
// booking. A failed step restores the old slot and the booking keeps its
// original interval.
func (s *Service) RescheduleBooking(ctx context.Context, actor domain.Actor, bookingID int64, req RescheduleRequest) (bool, error) {
	if !actor.IsStaff() {
		return false, domain.Forbiddenf("only staff can reschedule bookings")
	}
	iv, err := domain.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		return false, err
	}
	now := s.now()
	if err := s.checkWindow(iv, now); err != nil {
		return false, err
	}

	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return false, err
	}

	unlock, err := s.lockRoom(ctx, b.RoomID)
	if err != nil {
		return false, err
	}
	defer unlock()

	var sagaErr error
	changed := false
	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		cur, err := tx.Bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if cur.Status != domain.BookingConfirmed {
			return domain.StateConflict("booking", "reschedule", cur.Status)
		}
		if cur.StartUTC.Equal(iv.Start) && cur.EndUTC.Equal(iv.End) {
			b = cur
			return nil
		}

		sagaErr = runSaga(ctx, s.rescheduleSteps(tx, cur, iv, actor.ID, now))
		var compErr *CompensationError
		if errors.As(sagaErr, &compErr) {
			return sagaErr
		}
		if sagaErr != nil {
			// compensated: commit the restored state
			return nil
		}

		cur.StartUTC, cur.EndUTC = iv.Start, iv.End
		b = cur
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if sagaErr != nil {
		s.logger.Info().Int64("booking_id", bookingID).Err(sagaErr).Msg("reschedule rolled back")
		return false, sagaErr
	}
	if !changed {
		return false, nil
	}

	s.logger.Info().Int64("booking_id", b.ID).Time("start", iv.Start).Time("end", iv.End).Int64("staff_id", actor.ID).Msg("booking rescheduled")
	s.publish(events.EventBookingRescheduled, b, actor.ID, "")
	return true, nil
}

func (s *Service) rescheduleSteps(tx *repository.Repos, b *domain.Booking, iv domain.Interval, actorID int64, now time.Time) []sagaStep {
	var (
		released []domain.BlockedTimeSlot
		occupied *domain.BlockedTimeSlot
	)
	return []sagaStep{
		{
			name: "release-old-slot",
			do: func(ctx context.Context) error {
				slots, err := tx.Slots.ListByBooking(ctx, b.ID)
				if err != nil {
					return err
				}
				released = slots
				_, err = tx.Slots.DeleteByBooking(ctx, b.ID)
				return err
			},
			compensate: func(ctx context.Context) error {
				for i := range released {
					restored := released[i]
					restored.ID = 0
					if err := tx.Slots.Create(ctx, &restored); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			name: "check-availability",
			do: func(ctx context.Context) error {
				ok, err := availability.NewChecker(tx.Slots, tx.Bookings).IsAvailableExcept(ctx, b.RoomID, iv, b.ID)
				if err != nil {
					return err
				}
				if !ok {
					return domain.Conflictf("room is not available for the new time")
				}
				return nil
			},
		},
		{
			name: "occupy-new-slot",
			do: func(ctx context.Context) error {
				moved := *b
				moved.StartUTC, moved.EndUTC = iv.Start, iv.End
				occupied = bookingSlot(&moved, actorID, now)
				return tx.Slots.Create(ctx, occupied)
			},
			compensate: func(ctx context.Context) error {
				return tx.Slots.Delete(ctx, occupied.ID)
			},
		},
		{
			name: "move-booking",
			do: func(ctx context.Context) error {
				ok, err := tx.Bookings.UpdateFromStatus(ctx, b.ID, []domain.BookingStatus{domain.BookingConfirmed}, map[string]any{
					"start_time": iv.Start,
					"end_time":   iv.End,
					"updated_at": now,
				})
				if err != nil {
					return err
				}
				if !ok {
					return domain.StateConflict("booking", "reschedule", b.Status)
				}
				return nil
			},
		},
	}
}

// UpdateBookingDetails applies a staff patch. Only fields present in the patch
// change; an explicit empty string clears a text field.
func (s *Service) UpdateBookingDetails(ctx context.Context, actor domain.Actor, bookingID int64, patch domain.BookingPatch) (*domain.Booking, error) {
	if !actor.IsStaff() {
		return nil, domain.Forbiddenf("only staff can edit booking details")
	}
	if patch.Empty() {
		return nil, domain.Validationf("nothing to update")
	}

	var b *domain.Booking
	err := s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		cur, err := tx.Bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if cur.Status != domain.BookingPendingPayment && cur.Status != domain.BookingConfirmed {
			return domain.StateConflict("booking", "edit", cur.Status)
		}

		fields := map[string]any{"updated_at": s.now()}
		if n, ok := patch.Participants.Get(); ok {
			room, err := tx.Rooms.GetByID(ctx, cur.RoomID)
			if err != nil {
				return err
			}
			if n <= 0 || n > room.Capacity {
				return domain.Validationf("participants must be between 1 and %d", room.Capacity)
			}
			fields["participants"] = n
		}
		if v, ok := patch.SpecialRequests.Get(); ok {
			fields["special_requests"] = strings.TrimSpace(v)
		}
		if v, ok := patch.Notes.Get(); ok {
			fields["notes"] = strings.TrimSpace(v)
		}

		if err := tx.Bookings.Update(ctx, cur.ID, fields); err != nil {
			return err
		}
		b, err = tx.Bookings.GetByID(ctx, cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("booking_id", b.ID).Int64("staff_id", actor.ID).Msg("booking details updated")
	return b, nil
}

// CheckIn stamps the arrival time of a confirmed booking. Repeating it is a no-op.
func (s *Service) CheckIn(ctx context.Context, actor domain.Actor, bookingID int64) (*domain.Booking, error) {
	return s.stamp(ctx, actor, bookingID, "check in", func(b *domain.Booking) (string, error) {
		if b.CheckedInAt != nil {
			return "", nil
		}
		return "checked_in_at", nil
	})
}

// CheckOut stamps the departure time. The booking must be checked in.
func (s *Service) CheckOut(ctx context.Context, actor domain.Actor, bookingID int64) (*domain.Booking, error) {
	return s.stamp(ctx, actor, bookingID, "check out", func(b *domain.Booking) (string, error) {
		if b.CheckedInAt == nil {
			return "", &domain.StateError{Entity: "booking", Action: "check out", Current: "not_checked_in"}
		}
		if b.CheckedOutAt != nil {
			return "", nil
		}
		return "checked_out_at", nil
	})
}

func (s *Service) stamp(ctx context.Context, actor domain.Actor, bookingID int64, action string, column func(b *domain.Booking) (string, error)) (*domain.Booking, error) {
	if !actor.IsStaff() {
		return nil, domain.Forbiddenf("only staff can %s bookings", action)
	}

	var b *domain.Booking
	err := s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		cur, err := tx.Bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if cur.Status != domain.BookingConfirmed {
			return domain.StateConflict("booking", action, cur.Status)
		}
		col, err := column(cur)
		if err != nil {
			return err
		}
		b = cur
		if col == "" {
			return nil
		}

		now := s.now()
		if err := tx.Bookings.Update(ctx, cur.ID, map[string]any{col: now, "updated_at": now}); err != nil {
			return err
		}
		b, err = tx.Bookings.GetByID(ctx, cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("booking_id", b.ID).Int64("staff_id", actor.ID).Str("action", action).Msg("booking stamped")
	return b, nil
}

// MarkRefunded is the refund workflow's completion step: Confirmed becomes
// Refunded and the slot is released. It runs inside the caller's transaction,
// which must hold the room lock.
func (s *Service) MarkRefunded(ctx context.Context, tx *repository.Repos, bookingID int64) (*domain.Booking, error) {
	cur, err := tx.Bookings.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if cur.Status != domain.BookingConfirmed {
		return nil, domain.StateConflict("booking", "refund", cur.Status)
	}
	now := s.now()
	ok, err := tx.Bookings.UpdateFromStatus(ctx, cur.ID, []domain.BookingStatus{domain.BookingConfirmed}, map[string]any{
		"status":     domain.BookingRefunded,
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.StateConflict("booking", "refund", cur.Status)
	}
	if _, err := tx.Slots.DeleteByBooking(ctx, cur.ID); err != nil {
		return nil, err
	}
	cur.Status = domain.BookingRefunded
	return cur, nil
}

// LockRoom exposes the room lock to workflows that end in a booking transition.
func (s *Service) LockRoom(ctx context.Context, roomID int64) (func(), error) {
	return s.lockRoom(ctx, roomID)
}

// PublishRefunded emits the booking event after the refund transaction commits.
func (s *Service) PublishRefunded(b *domain.Booking, actorID int64) {
	s.publish(events.EventBookingRefunded, b, actorID, "")
}
