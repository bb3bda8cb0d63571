package payment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	gateway  *Gateway
	bookings bookingRepo
	rooms    roomStatusWriter
	loggerf  func(format string, args ...interface{})
	now      func() time.Time
}

func NewService(gateway *Gateway, bookings bookingRepo, rooms roomStatusWriter, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		gateway:  gateway,
		bookings: bookings,
		rooms:    rooms,
		loggerf:  loggerf,
		now:      time.Now,
	}
}

// GetPaymentURL returns a signed gateway URL for a booking that is still
// awaiting payment. Owner-only.
func (s *Service) GetPaymentURL(ctx context.Context, bookingID, userID int64, clientIP string) (string, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if b.UserID != userID {
		return "", ErrForbidden
	}
	if b.Status != domain.BookingPending || b.PaymentStatus != domain.PaymentUnpaid {
		return "", ErrNotPayable
	}
	if !s.now().Before(b.PaymentExpiresAt) {
		return "", ErrNotPayable
	}

	return s.gateway.BuildPaymentURL(b, clientIP), nil
}

// HandleCallback reconciles an asynchronous gateway callback against the
// in-flight booking. The signature check comes first; nothing is written
// on a mismatch. The state transition is a conditional update, so a
// duplicate delivery or a lost race against the sweeper degrades to a
// no-op instead of an error or a double write.
func (s *Service) HandleCallback(ctx context.Context, params map[string]string) (*domain.Booking, error) {
	if err := s.gateway.VerifyCallback(params); err != nil {
		s.loggerf("level=warn msg=gateway callback signature mismatch order_id=%s", params[ParamOrderID])
		return nil, err
	}

	bookingID, err := strconv.ParseInt(params[ParamOrderID], 10, 64)
	if err != nil {
		return nil, ErrInvalidCallback
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	amount, err := strconv.ParseInt(params[ParamAmount], 10, 64)
	if err != nil {
		return nil, ErrInvalidCallback
	}
	if amount != MinorUnits(b.TotalPrice) {
		s.loggerf("level=error msg=callback amount mismatch booking_id=%d callback_amount=%d expected=%d",
			b.ID, amount, MinorUnits(b.TotalPrice))
		return nil, ErrAmountMismatch
	}

	if params[ParamResponseCode] == ResponseCodeSuccess {
		return s.applySuccess(ctx, b, params)
	}
	return s.applyFailure(ctx, b, params[ParamResponseCode])
}

func (s *Service) applySuccess(ctx context.Context, b *domain.Booking, params map[string]string) (*domain.Booking, error) {
	rec := repository.Reconciliation{
		TransactionID: params[ParamTransactionNo],
		BankCode:      params[ParamBankCode],
		BankTranNo:    params[ParamBankTranNo],
		CardType:      params[ParamCardType],
	}

	changed, err := s.bookings.ConfirmPaid(ctx, b.ID, rec)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Either a retried delivery of a callback we already applied, or
		// the sweeper canceled the booking first. Both are benign.
		current, err := s.bookings.GetByID(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		s.loggerf("level=info msg=success callback was a no-op booking_id=%d status=%s payment_status=%s",
			current.ID, current.Status, current.PaymentStatus)
		return current, nil
	}

	return s.bookings.GetByID(ctx, b.ID)
}

func (s *Service) applyFailure(ctx context.Context, b *domain.Booking, code string) (*domain.Booking, error) {
	changed, err := s.bookings.CancelIfPendingUnpaid(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.loggerf("level=info msg=booking canceled on failed payment booking_id=%d response_code=%s", b.ID, code)
		if err := s.rooms.UpdateStatus(ctx, b.RoomID, domain.RoomAvailable); err != nil {
			s.loggerf("level=error msg=failed to release room room_id=%d err=%v", b.RoomID, err)
		}
	}
	return s.bookings.GetByID(ctx, b.ID)
}
