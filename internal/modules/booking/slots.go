package booking

import (
	"context"
	"strings"
	"time"

	"coworking/internal/domain"
	"coworking/internal/modules/availability"
	"coworking/internal/repository"
)

// BlockSlot lets a host take their room out of service for an interval.
func (s *Service) BlockSlot(ctx context.Context, actor domain.Actor, roomID int64, req BlockSlotRequest) (*domain.BlockedTimeSlot, error) {
	iv, err := domain.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, domain.Validationf("a reason is required")
	}

	unlock, err := s.lockRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var slot *domain.BlockedTimeSlot
	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		room, err := tx.Rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		if err := ownsRoom(actor, room); err != nil {
			return err
		}

		ok, err := availability.NewChecker(tx.Slots, tx.Bookings).IsAvailable(ctx, roomID, iv)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflictf("room already has bookings or blocks in this interval")
		}

		slot = &domain.BlockedTimeSlot{
			RoomID:    roomID,
			StartUTC:  iv.Start,
			EndUTC:    iv.End,
			Reason:    reason,
			CreatedBy: actor.ID,
			CreatedAt: s.now(),
		}
		return tx.Slots.Create(ctx, slot)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("slot_id", slot.ID).Int64("room_id", roomID).Int64("owner_id", actor.ID).Msg("slot blocked")
	return slot, nil
}

// ReleaseSlot removes a manual block. Slots held by bookings follow their
// booking and cannot be released here.
func (s *Service) ReleaseSlot(ctx context.Context, actor domain.Actor, slotID int64) error {
	slot, err := s.repos.Slots.GetByID(ctx, slotID)
	if err != nil {
		return err
	}

	unlock, err := s.lockRoom(ctx, slot.RoomID)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		room, err := tx.Rooms.GetForUpdate(ctx, slot.RoomID)
		if err != nil {
			return err
		}
		if err := ownsRoom(actor, room); err != nil {
			return err
		}
		cur, err := tx.Slots.GetByID(ctx, slotID)
		if err != nil {
			return err
		}
		if !cur.Manual() {
			return &domain.StateError{Entity: "blocked slot", Action: "release", Current: "booking_linked"}
		}
		return tx.Slots.Delete(ctx, slotID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("slot_id", slotID).Int64("owner_id", actor.ID).Msg("slot released")
	return nil
}

// Availability returns the free windows of the room on day within opening hours.
func (s *Service) Availability(ctx context.Context, roomID int64, day time.Time) ([]domain.Interval, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return availability.NewChecker(s.repos.Slots, s.repos.Bookings).
		FreeWindows(ctx, roomID, day, s.policy.OpeningHour, s.policy.ClosingHour)
}

// IsAvailable is the read-only availability check for callers outside a write.
func (s *Service) IsAvailable(ctx context.Context, roomID int64, iv domain.Interval) (bool, error) {
	return availability.NewChecker(s.repos.Slots, s.repos.Bookings).IsAvailable(ctx, roomID, iv)
}

func (s *Service) GetRoom(ctx context.Context, roomID int64) (*domain.Room, error) {
	room, err := s.repos.Rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, domain.NotFound("room")
	}
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.repos.Rooms.ListActive(ctx)
}

func ownsRoom(actor domain.Actor, room *domain.Room) error {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.Role != domain.RoleOwner || room.OwnerID != actor.ID {
		return domain.Forbiddenf("room belongs to another host")
	}
	return nil
}
