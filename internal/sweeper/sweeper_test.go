package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"stayhub/internal/domain"

	"github.com/stretchr/testify/assert"
)

type fakeBookingRepo struct {
	expired    []domain.Booking
	findErr    error
	cancelErr  map[int64]error
	notPending map[int64]bool

	canceled []int64
}

func (f *fakeBookingRepo) FindExpiredPending(_ context.Context, _ time.Time) ([]domain.Booking, error) {
	return f.expired, f.findErr
}

func (f *fakeBookingRepo) CancelIfPendingUnpaid(_ context.Context, bookingID int64) (bool, error) {
	if err := f.cancelErr[bookingID]; err != nil {
		return false, err
	}
	if f.notPending[bookingID] {
		return false, nil
	}
	f.canceled = append(f.canceled, bookingID)
	return true, nil
}

type fakeRoomRepo struct {
	released  []int64
	updateErr error
}

func (f *fakeRoomRepo) UpdateStatus(_ context.Context, roomID int64, status domain.RoomStatus) error {
	if status == domain.RoomAvailable {
		f.released = append(f.released, roomID)
	}
	return f.updateErr
}

func expiredBooking(id, roomID int64) domain.Booking {
	return domain.Booking{
		ID:            id,
		RoomID:        roomID,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentUnpaid,
	}
}

func TestSweepOnce_CancelsAndReleases(t *testing.T) {
	bookings := &fakeBookingRepo{expired: []domain.Booking{
		expiredBooking(1, 10),
		expiredBooking(2, 20),
	}}
	rooms := &fakeRoomRepo{}
	s := New(bookings, rooms, time.Minute)

	got := s.SweepOnce(context.Background())

	assert.Equal(t, 2, got)
	assert.Equal(t, []int64{1, 2}, bookings.canceled)
	assert.Equal(t, []int64{10, 20}, rooms.released)
}

func TestSweepOnce_EmptyBatch(t *testing.T) {
	bookings := &fakeBookingRepo{}
	rooms := &fakeRoomRepo{}
	s := New(bookings, rooms, time.Minute)

	assert.Equal(t, 0, s.SweepOnce(context.Background()))
	assert.Empty(t, rooms.released)
}

func TestSweepOnce_QueryFailure(t *testing.T) {
	bookings := &fakeBookingRepo{findErr: errors.New("db down")}
	rooms := &fakeRoomRepo{}
	s := New(bookings, rooms, time.Minute)

	assert.Equal(t, 0, s.SweepOnce(context.Background()))
}

func TestSweepOnce_FailureIsolatedPerBooking(t *testing.T) {
	bookings := &fakeBookingRepo{
		expired: []domain.Booking{
			expiredBooking(1, 10),
			expiredBooking(2, 20),
			expiredBooking(3, 30),
		},
		cancelErr: map[int64]error{2: errors.New("deadlock")},
	}
	rooms := &fakeRoomRepo{}
	s := New(bookings, rooms, time.Minute)

	got := s.SweepOnce(context.Background())

	assert.Equal(t, 2, got)
	assert.Equal(t, []int64{1, 3}, bookings.canceled)
	assert.Equal(t, []int64{10, 30}, rooms.released)
}

func TestSweepOnce_PaidMidSweepLeftAlone(t *testing.T) {
	// The callback confirmed booking 2 between select and update; the
	// conditional cancel reports no change and the room stays occupied.
	bookings := &fakeBookingRepo{
		expired:    []domain.Booking{expiredBooking(1, 10), expiredBooking(2, 20)},
		notPending: map[int64]bool{2: true},
	}
	rooms := &fakeRoomRepo{}
	s := New(bookings, rooms, time.Minute)

	got := s.SweepOnce(context.Background())

	assert.Equal(t, 1, got)
	assert.Equal(t, []int64{1}, bookings.canceled)
	assert.Equal(t, []int64{10}, rooms.released)
}

func TestSweepOnce_RoomReleaseFailureDoesNotUndoCancel(t *testing.T) {
	bookings := &fakeBookingRepo{expired: []domain.Booking{expiredBooking(1, 10)}}
	rooms := &fakeRoomRepo{updateErr: errors.New("db down")}
	s := New(bookings, rooms, time.Minute)

	assert.Equal(t, 1, s.SweepOnce(context.Background()))
	assert.Equal(t, []int64{1}, bookings.canceled)
}

func TestStop_WithoutStart(t *testing.T) {
	s := New(&fakeBookingRepo{}, &fakeRoomRepo{}, time.Minute)
	assert.NotPanics(t, func() { s.Stop() })
}
