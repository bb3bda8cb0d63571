package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stayhub/internal/database"
	"stayhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (*BookingRepository, *gorm.DB) {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&bookingModel{}))

	// A single connection serializes writers the way postgres would via
	// its isolation level, instead of surfacing sqlite busy errors.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return NewBookingRepository(db), db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pendingBooking(roomID int64, checkIn, checkOut time.Time) *domain.Booking {
	return &domain.Booking{
		RoomID:           roomID,
		HotelID:          1,
		UserID:           3,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		TotalPrice:       2000000,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentUnpaid,
		PaymentExpiresAt: time.Now().Add(15 * time.Minute),
	}
}

func TestCreateReserved_PersistsBooking(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	b := pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3))
	require.NoError(t, repo.CreateReserved(ctx, b))
	require.NotZero(t, b.ID)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, got.Status)
	assert.Equal(t, domain.PaymentUnpaid, got.PaymentStatus)
	assert.Equal(t, float64(2000000), got.TotalPrice)
}

func TestCreateReserved_RejectsOverlap(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateReserved(ctx, pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3))))

	cases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
	}{
		{"starts inside", day(2025, 6, 2), day(2025, 6, 4)},
		{"ends inside", day(2025, 5, 30), day(2025, 6, 2)},
		{"contains", day(2025, 5, 30), day(2025, 6, 5)},
		{"contained", day(2025, 6, 1), day(2025, 6, 2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := repo.CreateReserved(ctx, pendingBooking(7, tc.checkIn, tc.checkOut))
			assert.ErrorIs(t, err, ErrOverlap)
		})
	}
}

func TestCreateReserved_TouchingIntervalsCoexist(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateReserved(ctx, pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3))))

	// Half-open intervals: checkout day is free for the next guest.
	assert.NoError(t, repo.CreateReserved(ctx, pendingBooking(7, day(2025, 6, 3), day(2025, 6, 5))))
	assert.NoError(t, repo.CreateReserved(ctx, pendingBooking(7, day(2025, 5, 30), day(2025, 6, 1))))
}

func TestCreateReserved_OtherRoomUnaffected(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateReserved(ctx, pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3))))
	assert.NoError(t, repo.CreateReserved(ctx, pendingBooking(8, day(2025, 6, 1), day(2025, 6, 3))))
}

func TestCreateReserved_CanceledDoesNotBlock(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	b := pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3))
	require.NoError(t, repo.CreateReserved(ctx, b))

	changed, err := repo.Cancel(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, changed)

	assert.NoError(t, repo.CreateReserved(ctx, pendingBooking(7, day(2025, 6, 2), day(2025, 6, 4))))
}

func TestCreateReserved_ConcurrentOverlapSingleWinner(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	var committed, rejected atomic.Int32
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.CreateReserved(ctx, pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3)))
			switch {
			case err == nil:
				committed.Add(1)
			case errors.Is(err, ErrOverlap):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), committed.Load())
	assert.Equal(t, int32(n-1), rejected.Load())

	var rows int64
	require.NoError(t, db.Model(&bookingModel{}).Where("room_id = ?", 7).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestConfirmPaid_ConditionalAndIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	b := pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3))
	require.NoError(t, repo.CreateReserved(ctx, b))

	rec := Reconciliation{TransactionID: "TX-555", BankCode: "NCB", BankTranNo: "B-1", CardType: "ATM"}

	changed, err := repo.ConfirmPaid(ctx, b.ID, rec)
	require.NoError(t, err)
	require.True(t, changed)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, "TX-555", got.TransactionID)

	// Second delivery matches zero rows.
	changed, err = repo.ConfirmPaid(ctx, b.ID, rec)
	require.NoError(t, err)
	assert.False(t, changed)

	// A confirmed booking is out of the sweeper's reach too.
	changed, err = repo.CancelIfPendingUnpaid(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFindExpiredPending_SelectsOnlyLapsedUnpaid(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	lapsed := pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3))
	lapsed.PaymentExpiresAt = now.Add(-time.Minute)
	require.NoError(t, repo.CreateReserved(ctx, lapsed))

	fresh := pendingBooking(8, day(2025, 6, 1), day(2025, 6, 3))
	require.NoError(t, repo.CreateReserved(ctx, fresh))

	paid := pendingBooking(9, day(2025, 6, 1), day(2025, 6, 3))
	paid.PaymentExpiresAt = now.Add(-time.Minute)
	require.NoError(t, repo.CreateReserved(ctx, paid))
	changed, err := repo.ConfirmPaid(ctx, paid.ID, Reconciliation{TransactionID: "TX-1"})
	require.NoError(t, err)
	require.True(t, changed)

	expired, err := repo.FindExpiredPending(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, lapsed.ID, expired[0].ID)
}

func TestBusyIntervals_OrderedAndFiltered(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	later := pendingBooking(7, day(2025, 6, 10), day(2025, 6, 12))
	require.NoError(t, repo.CreateReserved(ctx, later))
	earlier := pendingBooking(7, day(2025, 6, 1), day(2025, 6, 3))
	require.NoError(t, repo.CreateReserved(ctx, earlier))

	canceled := pendingBooking(7, day(2025, 6, 5), day(2025, 6, 7))
	require.NoError(t, repo.CreateReserved(ctx, canceled))
	changed, err := repo.Cancel(ctx, canceled.ID)
	require.NoError(t, err)
	require.True(t, changed)

	got, err := repo.BusyIntervals(ctx, 7, day(2025, 6, 1), day(2025, 7, 1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].CheckIn.Before(got[1].CheckIn))
}
