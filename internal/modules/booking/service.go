package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coworking/internal/domain"
	"coworking/internal/events"
	"coworking/internal/lock"
	"coworking/internal/metrics"
	"coworking/internal/modules/availability"
	"coworking/internal/modules/pricing"
	"coworking/internal/modules/promotion"
	"coworking/internal/pkg/clock"
	"coworking/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service owns the booking lifecycle. Every check-and-write on a room runs
// under the room lock and inside one transaction.
type Service struct {
	repos   *repository.Repos
	locker  lock.Locker
	promos  *promotion.Validator
	pricing *pricing.Service
	policy  Policy
	clock   clock.Clock
	bus     *events.EventBus
	logger  *zerolog.Logger
}

func NewService(
	repos *repository.Repos,
	locker lock.Locker,
	promos *promotion.Validator,
	policy Policy,
	clk clock.Clock,
	bus *events.EventBus,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		repos:   repos,
		locker:  locker,
		promos:  promos,
		pricing: pricing.NewService(repos.Rooms, policy.Pricing),
		policy:  policy,
		clock:   clk,
		bus:     bus,
		logger:  logger,
	}
}

// CreateBooking reserves a room in PendingPayment. Staff and owners booking on
// a customer's behalf also occupy the slot right away.
func (s *Service) CreateBooking(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*domain.Booking, error) {
	iv, err := domain.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if req.Participants <= 0 {
		return nil, domain.Validationf("participants must be positive")
	}
	now := s.now()
	if err := s.checkWindow(iv, now); err != nil {
		return nil, err
	}

	customerID := actor.ID
	if actor.Role != domain.RoleClient && req.CustomerID > 0 {
		customerID = req.CustomerID
	}

	unlock, err := s.lockRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var b *domain.Booking
	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		room, err := tx.Rooms.GetForUpdate(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if !room.IsActive {
			return domain.NotFound("room")
		}
		if actor.Role == domain.RoleOwner && room.OwnerID != actor.ID {
			return domain.Forbiddenf("room belongs to another host")
		}

		ok, err := availability.NewChecker(tx.Slots, tx.Bookings).IsAvailable(ctx, room.ID, iv)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflictf("room is not available for the selected time")
		}

		q, err := pricing.Calculate(room, iv, req.Participants, s.policy.Pricing)
		if err != nil {
			return err
		}

		var discount *promotion.Discount
		if strings.TrimSpace(req.PromotionCode) != "" {
			discount, err = s.promos.ValidateAndCalculateDiscount(ctx, tx.Promotions, req.PromotionCode, customerID, q.TotalPrice, room.OwnerID)
			if err != nil {
				return err
			}
		}

		b = &domain.Booking{
			Code:            newBookingCode(),
			CustomerID:      customerID,
			RoomID:          room.ID,
			StartUTC:        iv.Start,
			EndUTC:          iv.End,
			Participants:    req.Participants,
			SpecialRequests: strings.TrimSpace(req.SpecialRequests),
			TotalPrice:      q.TotalPrice,
			TaxAmount:       q.TaxAmount,
			ServiceFee:      q.ServiceFee,
			Currency:        q.Currency,
			Status:          domain.BookingPendingPayment,
			CreatedBy:       actor.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if discount != nil {
			b.DiscountAmount = discount.Amount
			b.PromotionID = &discount.Promotion.ID
		}
		b.FinalAmount = pricing.FinalAmount(b.TotalPrice, b.TaxAmount, b.ServiceFee, b.DiscountAmount)

		if err := tx.Bookings.Create(ctx, b); err != nil {
			return err
		}
		if discount != nil {
			if err := s.promos.RecordUsage(ctx, tx.Promotions, discount.Promotion.ID, b.ID, customerID, discount.Amount); err != nil {
				return err
			}
		}
		if actor.Role != domain.RoleClient {
			return tx.Slots.Create(ctx, bookingSlot(b, actor.ID, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", b.ID).
		Str("code", b.Code).
		Int64("room_id", b.RoomID).
		Int64("customer_id", b.CustomerID).
		Float64("final_amount", b.FinalAmount).
		Msg("booking created")
	s.publish(events.EventBookingCreated, b, actor.ID, "")
	return b, nil
}

// GetBooking returns a booking visible to the actor: customers see their own,
// owners see bookings of their rooms, staff see everything.
func (s *Service) GetBooking(ctx context.Context, actor domain.Actor, code string) (*domain.Booking, error) {
	b, err := s.repos.Bookings.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) ListCustomerBookings(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Bookings.ListByCustomer(ctx, customerID, limit, offset)
}

// Quote prices a candidate booking and previews a promotion without redeeming it.
func (s *Service) Quote(ctx context.Context, userID int64, req QuoteRequest) (*QuoteResponse, error) {
	iv, err := domain.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	q, err := s.pricing.Quote(ctx, req.RoomID, iv, req.Participants)
	if err != nil {
		return nil, err
	}
	out := &QuoteResponse{Quote: q}
	if strings.TrimSpace(req.PromotionCode) == "" {
		return out, nil
	}

	room, err := s.repos.Rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	d, err := s.promos.ValidateAndCalculateDiscount(ctx, s.repos.Promotions, req.PromotionCode, userID, q.TotalPrice, room.OwnerID)
	if err != nil {
		return nil, err
	}
	out.PromotionCode = d.Promotion.Code
	out.DiscountAmount = d.Amount
	out.FinalAmount = pricing.FinalAmount(q.TotalPrice, q.TaxAmount, q.ServiceFee, d.Amount)
	return out, nil
}

func (s *Service) authorize(ctx context.Context, actor domain.Actor, b *domain.Booking) error {
	switch actor.Role {
	case domain.RoleStaff, domain.RoleAdmin:
		return nil
	case domain.RoleOwner:
		room, err := s.repos.Rooms.GetByID(ctx, b.RoomID)
		if err != nil {
			return err
		}
		if room.OwnerID != actor.ID {
			return domain.Forbiddenf("booking belongs to another host")
		}
		return nil
	default:
		if b.CustomerID != actor.ID {
			return domain.Forbiddenf("booking belongs to another customer")
		}
		return nil
	}
}

func (s *Service) checkWindow(iv domain.Interval, now time.Time) error {
	if iv.Start.Before(now.Add(s.policy.MinLeadTime)) {
		return domain.Validationf("start must be at least %s in the future", s.policy.MinLeadTime)
	}
	if s.policy.MaxAdvanceDays > 0 && iv.Start.After(now.AddDate(0, 0, s.policy.MaxAdvanceDays)) {
		return domain.Validationf("start must be within %d days", s.policy.MaxAdvanceDays)
	}
	return nil
}

func (s *Service) lockRoom(ctx context.Context, roomID int64) (func(), error) {
	start := time.Now()
	unlock, err := s.locker.Lock(ctx, lock.RoomKey(roomID))
	metrics.ObserveLockWait(time.Since(start).Seconds())
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, domain.Conflictf("room is busy, try again")
	}
	if err != nil {
		return nil, fmt.Errorf("lock room %d: %w", roomID, err)
	}
	return unlock, nil
}

func (s *Service) now() time.Time {
	return domain.NormalizeTime(s.clock.Now())
}

func (s *Service) publish(event string, b *domain.Booking, actorID int64, reason string) {
	if err := s.bus.PublishJSON(event, events.NewBookingPayload(b, actorID, reason)); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Int64("booking_id", b.ID).Msg("failed to publish event")
	}
}

func bookingSlot(b *domain.Booking, actorID int64, now time.Time) *domain.BlockedTimeSlot {
	id := b.ID
	return &domain.BlockedTimeSlot{
		RoomID:    b.RoomID,
		StartUTC:  b.StartUTC,
		EndUTC:    b.EndUTC,
		Reason:    "booking " + b.Code,
		BookingID: &id,
		CreatedBy: actorID,
		CreatedAt: now,
	}
}

func newBookingCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK-" + strings.ToUpper(raw[:10])
}
