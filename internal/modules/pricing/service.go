package pricing

import (
	"context"

	"coworking/internal/domain"
)

type RoomReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
}

type Service struct {
	rooms  RoomReader
	policy Policy
}

func NewService(rooms RoomReader, policy Policy) *Service {
	return &Service{rooms: rooms, policy: policy}
}

func (s *Service) Policy() Policy { return s.policy }

// Quote loads the room and prices the interval. Inactive rooms are not bookable.
func (s *Service) Quote(ctx context.Context, roomID int64, iv domain.Interval, participants int) (*Quote, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, domain.NotFound("room")
	}
	return Calculate(room, iv, participants, s.policy)
}
