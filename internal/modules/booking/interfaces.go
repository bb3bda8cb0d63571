package booking

import (
	"context"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/repository"
)

// BookingRepository is the reservation guard plus the booking writers.
type BookingRepository interface {
	CreateReserved(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	BusyIntervals(ctx context.Context, roomID int64, from, to time.Time) ([]repository.BusyInterval, error)
}

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	UpdateStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error
}
