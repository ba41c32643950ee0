package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"coworking/internal/database"
	"coworking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2030, 5, 20, 0, 0, 0, 0, time.UTC)

func hour(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

func setup(t *testing.T) (*Repos, *domain.Room) {
	t.Helper()
	repos := New(database.OpenTest(t))
	room := &domain.Room{OwnerID: 100, Name: "Focus", Capacity: 4, HourlyRate: 10, Currency: "USD", IsActive: true}
	require.NoError(t, repos.Rooms.Create(context.Background(), room))
	return repos, room
}

func booking(roomID int64, code string, start, end time.Time, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		Code: code, CustomerID: 1, RoomID: roomID, StartUTC: start, EndUTC: end,
		Participants: 1, Currency: "USD", Status: status,
	}
}

func TestBookingRepository_CountOverlapping(t *testing.T) {
	repos, room := setup(t)
	ctx := context.Background()

	held := booking(room.ID, "BK-A", hour(10), hour(12), domain.BookingConfirmed)
	require.NoError(t, repos.Bookings.Create(ctx, held))
	require.NoError(t, repos.Bookings.Create(ctx, booking(room.ID, "BK-B", hour(13), hour(14), domain.BookingCancelled)))
	require.NoError(t, repos.Bookings.Create(ctx, booking(room.ID, "BK-C", hour(15), hour(16), domain.BookingFailed)))

	cases := []struct {
		name string
		iv   domain.Interval
		want int64
	}{
		{"overlap", domain.Interval{Start: hour(11), End: hour(13)}, 1},
		{"touching end", domain.Interval{Start: hour(12), End: hour(13)}, 0},
		{"touching start", domain.Interval{Start: hour(9), End: hour(10)}, 0},
		{"cancelled ignored", domain.Interval{Start: hour(13), End: hour(14)}, 0},
		{"failed ignored", domain.Interval{Start: hour(15), End: hour(16)}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := repos.Bookings.CountOverlapping(ctx, room.ID, tc.iv, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}

	n, err := repos.Bookings.CountOverlapping(ctx, room.ID, domain.Interval{Start: hour(11), End: hour(13)}, held.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "excluded booking does not block itself")
}

func TestBookingRepository_CodeIsUnique(t *testing.T) {
	repos, room := setup(t)
	ctx := context.Background()
	require.NoError(t, repos.Bookings.Create(ctx, booking(room.ID, "BK-SAME", hour(1), hour(2), domain.BookingPendingPayment)))
	err := repos.Bookings.Create(ctx, booking(room.ID, "BK-SAME", hour(3), hour(4), domain.BookingPendingPayment))
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestBookingRepository_UpdateFromStatus(t *testing.T) {
	repos, room := setup(t)
	ctx := context.Background()
	b := booking(room.ID, "BK-U", hour(1), hour(2), domain.BookingPendingPayment)
	require.NoError(t, repos.Bookings.Create(ctx, b))

	ok, err := repos.Bookings.UpdateFromStatus(ctx, b.ID, []domain.BookingStatus{domain.BookingConfirmed}, map[string]any{"status": domain.BookingCancelled})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.Bookings.UpdateFromStatus(ctx, b.ID, []domain.BookingStatus{domain.BookingPendingPayment}, map[string]any{"status": domain.BookingConfirmed})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repos.Bookings.GetByCode(ctx, "BK-U")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)

	_, err = repos.Bookings.GetByCode(ctx, "BK-MISSING")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSlotRepository_Ledger(t *testing.T) {
	repos, room := setup(t)
	ctx := context.Background()

	bookingID := int64(55)
	require.NoError(t, repos.Slots.Create(ctx, &domain.BlockedTimeSlot{RoomID: room.ID, StartUTC: hour(8), EndUTC: hour(9), Reason: "cleaning"}))
	require.NoError(t, repos.Slots.Create(ctx, &domain.BlockedTimeSlot{RoomID: room.ID, StartUTC: hour(10), EndUTC: hour(12), BookingID: &bookingID}))

	all, err := repos.Slots.ListOverlapping(ctx, room.ID, domain.Interval{Start: hour(7), End: hour(13)}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	others, err := repos.Slots.ListOverlapping(ctx, room.ID, domain.Interval{Start: hour(7), End: hour(13)}, bookingID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.True(t, others[0].Manual())

	n, err := repos.Slots.DeleteByBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repos.Slots.ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestPromotionRepository_IncrementUsageStopsAtLimit(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	p := &domain.Promotion{
		Code: "TWICE", DiscountType: domain.DiscountFixed, DiscountValue: 5,
		StartDate: hour(0), EndDate: hour(48), UsageLimit: 2, IsActive: true,
	}
	require.NoError(t, repos.Promotions.Create(ctx, p))

	for i := 0; i < 2; i++ {
		ok, err := repos.Promotions.IncrementUsage(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := repos.Promotions.IncrementUsage(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repos.Promotions.GetByCode(ctx, "TWICE")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsedCount)
}

func TestRefundRepository_TransitionFrom(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	req := &domain.RefundRequest{BookingID: 9, RequestedBy: 1, OwnerID: 100, Status: domain.RefundPendingOwnerApproval, RequestedAt: hour(1), Currency: "USD"}
	require.NoError(t, repos.Refunds.Create(ctx, req))

	active, err := repos.Refunds.GetActiveByBooking(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, active)

	pending, err := repos.Refunds.ListPendingSince(ctx, hour(2))
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	pending, err = repos.Refunds.ListPendingSince(ctx, hour(0))
	require.NoError(t, err)
	assert.Empty(t, pending)

	ok, err := repos.Refunds.TransitionFrom(ctx, req.ID, domain.RefundPendingOwnerApproval, map[string]any{"status": domain.RefundRejected})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.Refunds.TransitionFrom(ctx, req.ID, domain.RefundPendingOwnerApproval, map[string]any{"status": domain.RefundApprovedByOwner})
	require.NoError(t, err)
	assert.False(t, ok)

	active, err = repos.Refunds.GetActiveByBooking(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestRepos_TransactionRollsBack(t *testing.T) {
	repos, room := setup(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repos.Transaction(ctx, func(tx *Repos) error {
		if err := tx.Bookings.Create(ctx, booking(room.ID, "BK-TX", hour(1), hour(2), domain.BookingPendingPayment)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Bookings.GetByCode(ctx, "BK-TX")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
