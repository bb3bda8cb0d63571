package payment

import (
	"context"

	"stayhub/internal/domain"
	"stayhub/internal/repository"
)

type bookingRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ConfirmPaid(ctx context.Context, bookingID int64, rec repository.Reconciliation) (bool, error)
	CancelIfPendingUnpaid(ctx context.Context, bookingID int64) (bool, error)
}

type roomStatusWriter interface {
	UpdateStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error
}
