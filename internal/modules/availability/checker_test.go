package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"coworking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSlotReader struct {
	mock.Mock
}

func (m *MockSlotReader) ListOverlapping(ctx context.Context, roomID int64, iv domain.Interval, excludeBookingID int64) ([]domain.BlockedTimeSlot, error) {
	args := m.Called(ctx, roomID, iv, excludeBookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BlockedTimeSlot), args.Error(1)
}

type MockBookingReader struct {
	mock.Mock
}

func (m *MockBookingReader) CountOverlapping(ctx context.Context, roomID int64, iv domain.Interval, excludeID int64) (int64, error) {
	args := m.Called(ctx, roomID, iv, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingReader) ListOverlapping(ctx context.Context, roomID int64, iv domain.Interval) ([]domain.Booking, error) {
	args := m.Called(ctx, roomID, iv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

var day = time.Date(2030, 5, 20, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

func iv(from, to int) domain.Interval { return domain.Interval{Start: at(from), End: at(to)} }

func TestIsAvailable_BlockedBySlot(t *testing.T) {
	slots := new(MockSlotReader)
	bookings := new(MockBookingReader)
	slots.On("ListOverlapping", mock.Anything, int64(1), iv(10, 12), int64(0)).
		Return([]domain.BlockedTimeSlot{{RoomID: 1, StartUTC: at(11), EndUTC: at(13)}}, nil)

	ok, err := NewChecker(slots, bookings).IsAvailable(context.Background(), 1, iv(10, 12))
	require.NoError(t, err)
	assert.False(t, ok)
	bookings.AssertNotCalled(t, "CountOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIsAvailable_BlockedByBooking(t *testing.T) {
	slots := new(MockSlotReader)
	bookings := new(MockBookingReader)
	slots.On("ListOverlapping", mock.Anything, int64(1), iv(10, 12), int64(0)).Return([]domain.BlockedTimeSlot{}, nil)
	bookings.On("CountOverlapping", mock.Anything, int64(1), iv(10, 12), int64(0)).Return(int64(1), nil)

	ok, err := NewChecker(slots, bookings).IsAvailable(context.Background(), 1, iv(10, 12))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAvailableExcept_PassesBookingID(t *testing.T) {
	slots := new(MockSlotReader)
	bookings := new(MockBookingReader)
	slots.On("ListOverlapping", mock.Anything, int64(1), iv(10, 12), int64(42)).Return([]domain.BlockedTimeSlot{}, nil)
	bookings.On("CountOverlapping", mock.Anything, int64(1), iv(10, 12), int64(42)).Return(int64(0), nil)

	ok, err := NewChecker(slots, bookings).IsAvailableExcept(context.Background(), 1, iv(10, 12), 42)
	require.NoError(t, err)
	assert.True(t, ok)
	slots.AssertExpectations(t)
	bookings.AssertExpectations(t)
}

func TestIsAvailable_ReaderError(t *testing.T) {
	slots := new(MockSlotReader)
	bookings := new(MockBookingReader)
	slots.On("ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewChecker(slots, bookings).IsAvailable(context.Background(), 1, iv(10, 12))
	assert.ErrorContains(t, err, "db down")
}

// memReader filters fixed intervals the way the repositories do.
type memReader struct {
	busy []domain.Interval
}

func (m memReader) ListOverlapping(_ context.Context, roomID int64, q domain.Interval, _ int64) ([]domain.BlockedTimeSlot, error) {
	var out []domain.BlockedTimeSlot
	for _, b := range m.busy {
		if b.Overlaps(q) {
			out = append(out, domain.BlockedTimeSlot{RoomID: roomID, StartUTC: b.Start, EndUTC: b.End})
		}
	}
	return out, nil
}

type noBookings struct{}

func (noBookings) CountOverlapping(context.Context, int64, domain.Interval, int64) (int64, error) {
	return 0, nil
}

func (noBookings) ListOverlapping(context.Context, int64, domain.Interval) ([]domain.Booking, error) {
	return nil, nil
}

func TestIsAvailable_MatchesStrictOverlap(t *testing.T) {
	existing := iv(10, 12)
	checker := NewChecker(memReader{busy: []domain.Interval{existing}}, noBookings{})

	for from := 6; from < 16; from++ {
		for to := from + 1; to <= 16; to++ {
			cand := iv(from, to)
			ok, err := checker.IsAvailable(context.Background(), 1, cand)
			require.NoError(t, err)
			assert.Equal(t, !existing.Overlaps(cand), ok, "candidate %d-%d", from, to)
			assert.Equal(t, existing.Overlaps(cand), cand.Overlaps(existing), "symmetry %d-%d", from, to)
		}
	}

	ok, err := checker.IsAvailable(context.Background(), 1, iv(12, 14))
	require.NoError(t, err)
	assert.True(t, ok, "touching end is free")
}

func TestFreeWindows(t *testing.T) {
	slots := new(MockSlotReader)
	bookings := new(MockBookingReader)
	window := iv(8, 22)
	slots.On("ListOverlapping", mock.Anything, int64(3), window, int64(0)).
		Return([]domain.BlockedTimeSlot{{StartUTC: at(7), EndUTC: at(9)}, {StartUTC: at(13), EndUTC: at(14)}}, nil)
	bookings.On("ListOverlapping", mock.Anything, int64(3), window).
		Return([]domain.Booking{{StartUTC: at(10), EndUTC: at(12)}, {StartUTC: at(11), EndUTC: at(13)}, {StartUTC: at(21), EndUTC: at(23)}}, nil)

	free, err := NewChecker(slots, bookings).FreeWindows(context.Background(), 3, day.Add(15*time.Hour), 8, 22)
	require.NoError(t, err)
	assert.Equal(t, []domain.Interval{iv(9, 10), iv(14, 21)}, free)
}

func TestFreeWindows_InvalidHours(t *testing.T) {
	_, err := NewChecker(new(MockSlotReader), new(MockBookingReader)).FreeWindows(context.Background(), 1, day, 20, 8)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSubtractBusy_Empty(t *testing.T) {
	assert.Equal(t, []domain.Interval{iv(8, 22)}, subtractBusy(iv(8, 22), nil))
	assert.Empty(t, subtractBusy(iv(8, 22), mergeBusy(iv(8, 22), []domain.Interval{iv(0, 24)})))
}
