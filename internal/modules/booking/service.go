package booking

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	bookings      BookingRepository
	rooms         RoomRepository
	paymentWindow time.Duration
	now           func() time.Time
}

func NewService(bookings BookingRepository, rooms RoomRepository, paymentWindow time.Duration) *Service {
	return &Service{
		bookings:      bookings,
		rooms:         rooms,
		paymentWindow: paymentWindow,
		now:           time.Now,
	}
}

// CreateReservation validates the date range, freezes the price and asks
// the guard for an atomic check-then-insert. The room status flip to
// occupied is advisory only.
func (s *Service) CreateReservation(ctx context.Context, userID int64, req CreateReservationRequest) (*domain.Booking, error) {
	checkIn := truncateToDay(req.CheckIn)
	checkOut := truncateToDay(req.CheckOut)

	if !checkIn.Before(checkOut) {
		return nil, ErrValidation
	}
	today := truncateToDay(s.now())
	if checkIn.Before(today) {
		return nil, ErrValidation
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.Status == domain.RoomMaintenance {
		return nil, ErrRoomUnavailable
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	total := math.Round(float64(nights)*room.PricePerNight*100) / 100

	b := &domain.Booking{
		RoomID:           room.ID,
		HotelID:          room.HotelID,
		UserID:           userID,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		TotalPrice:       total,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentUnpaid,
		PaymentExpiresAt: s.now().Add(s.paymentWindow),
	}

	if err := s.bookings.CreateReserved(ctx, b); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return nil, ErrRoomUnavailable
		}
		return nil, err
	}

	if err := s.rooms.UpdateStatus(ctx, room.ID, domain.RoomOccupied); err != nil {
		log.Printf("level=error msg=failed to mark room occupied room_id=%d err=%v", room.ID, err)
	}

	return b, nil
}

// Cancel is the explicit user cancellation path. Only the owner may
// cancel; a paid booking keeps payment_status=paid (no refund here).
func (s *Service) Cancel(ctx context.Context, bookingID, requestingUserID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if b.UserID != requestingUserID {
		return ErrForbidden
	}
	if b.Status == domain.BookingCanceled {
		return ErrAlreadyCanceled
	}

	changed, err := s.bookings.Cancel(ctx, bookingID)
	if err != nil {
		return err
	}
	if !changed {
		// Lost the race to another writer that canceled first.
		return ErrAlreadyCanceled
	}

	if err := s.rooms.UpdateStatus(ctx, b.RoomID, domain.RoomAvailable); err != nil {
		log.Printf("level=error msg=failed to release room room_id=%d err=%v", b.RoomID, err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, bookingID, requestingUserID int64, isAdmin bool) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && b.UserID != requestingUserID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookings.ListByUser(ctx, userID, limit, offset)
}

// BusyIntervals exposes the occupied date ranges of a room so clients
// can render availability.
func (s *Service) BusyIntervals(ctx context.Context, roomID int64, from, to time.Time) ([]repository.BusyInterval, error) {
	if !from.Before(to) {
		return nil, ErrValidation
	}
	return s.bookings.BusyIntervals(ctx, roomID, truncateToDay(from), truncateToDay(to))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
