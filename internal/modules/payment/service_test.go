package payment

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mockBookingRepo keeps a single booking in memory and applies the same
// conditional-update discipline as the real repository.
type mockBookingRepo struct {
	booking          *domain.Booking
	confirmCalls     int
	cancelCalls      int
	confirmErr       error
	lastReconciled   repository.Reconciliation
	reconciledWrites int
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if m.booking == nil || m.booking.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.booking
	return &cp, nil
}

func (m *mockBookingRepo) ConfirmPaid(_ context.Context, bookingID int64, rec repository.Reconciliation) (bool, error) {
	m.confirmCalls++
	if m.confirmErr != nil {
		return false, m.confirmErr
	}
	b := m.booking
	if b == nil || b.ID != bookingID || b.Status != domain.BookingPending || b.PaymentStatus != domain.PaymentUnpaid {
		return false, nil
	}
	b.Status = domain.BookingConfirmed
	b.PaymentStatus = domain.PaymentPaid
	b.TransactionID = rec.TransactionID
	b.BankCode = rec.BankCode
	b.BankTranNo = rec.BankTranNo
	b.CardType = rec.CardType
	m.lastReconciled = rec
	m.reconciledWrites++
	return true, nil
}

func (m *mockBookingRepo) CancelIfPendingUnpaid(_ context.Context, bookingID int64) (bool, error) {
	m.cancelCalls++
	b := m.booking
	if b == nil || b.ID != bookingID || b.Status != domain.BookingPending || b.PaymentStatus != domain.PaymentUnpaid {
		return false, nil
	}
	b.Status = domain.BookingCanceled
	return true, nil
}

type mockRoomWriter struct {
	statuses map[int64]domain.RoomStatus
}

func (m *mockRoomWriter) UpdateStatus(_ context.Context, roomID int64, status domain.RoomStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[int64]domain.RoomStatus)
	}
	m.statuses[roomID] = status
	return nil
}

func signedCallback(g *Gateway, b *domain.Booking, responseCode string) map[string]string {
	params := map[string]string{
		ParamOrderID:       strconv.FormatInt(b.ID, 10),
		ParamAmount:        strconv.FormatInt(MinorUnits(b.TotalPrice), 10),
		ParamResponseCode:  responseCode,
		ParamTransactionNo: "TX-555",
		ParamBankCode:      "NCB",
		ParamBankTranNo:    "BT-777",
		ParamCardType:      "ATM",
	}
	params[ParamSecureHash] = g.sign(canonicalize(params))
	return params
}

func newTestService(repo *mockBookingRepo, rooms *mockRoomWriter) (*Service, *Gateway) {
	g := testGateway()
	svc := NewService(g, repo, rooms, nil)
	return svc, g
}

func TestHandleCallback_SuccessConfirmsAndReconciles(t *testing.T) {
	repo := &mockBookingRepo{booking: testBooking()}
	svc, g := newTestService(repo, &mockRoomWriter{})

	b, err := svc.HandleCallback(context.Background(), signedCallback(g, repo.booking, ResponseCodeSuccess))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, domain.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, "TX-555", b.TransactionID)
	assert.Equal(t, "NCB", b.BankCode)
	assert.Equal(t, "BT-777", b.BankTranNo)
	assert.Equal(t, "ATM", b.CardType)
}

func TestHandleCallback_DuplicateSuccessIsIdempotent(t *testing.T) {
	repo := &mockBookingRepo{booking: testBooking()}
	svc, g := newTestService(repo, &mockRoomWriter{})
	params := signedCallback(g, repo.booking, ResponseCodeSuccess)

	first, err := svc.HandleCallback(context.Background(), params)
	require.NoError(t, err)

	second, err := svc.HandleCallback(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, second.Status)
	assert.Equal(t, domain.PaymentPaid, second.PaymentStatus)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, 1, repo.reconciledWrites, "second delivery must not write again")
}

func TestHandleCallback_InvalidSignatureMutatesNothing(t *testing.T) {
	repo := &mockBookingRepo{booking: testBooking()}
	svc, g := newTestService(repo, &mockRoomWriter{})

	params := signedCallback(g, repo.booking, ResponseCodeSuccess)
	params[ParamAmount] = "1"

	_, err := svc.HandleCallback(context.Background(), params)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, 0, repo.confirmCalls)
	assert.Equal(t, 0, repo.cancelCalls)
	assert.Equal(t, domain.BookingPending, repo.booking.Status)
}

func TestHandleCallback_AmountMismatch(t *testing.T) {
	repo := &mockBookingRepo{booking: testBooking()}
	svc, g := newTestService(repo, &mockRoomWriter{})

	params := map[string]string{
		ParamOrderID:      "42",
		ParamAmount:       "50",
		ParamResponseCode: ResponseCodeSuccess,
	}
	params[ParamSecureHash] = g.sign(canonicalize(params))

	_, err := svc.HandleCallback(context.Background(), params)
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, 0, repo.confirmCalls)
}

func TestHandleCallback_FailureCodeCancelsAndReleasesRoom(t *testing.T) {
	repo := &mockBookingRepo{booking: testBooking()}
	rooms := &mockRoomWriter{}
	svc, g := newTestService(repo, rooms)

	b, err := svc.HandleCallback(context.Background(), signedCallback(g, repo.booking, "24"))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingCanceled, b.Status)
	assert.Equal(t, domain.PaymentUnpaid, b.PaymentStatus)
	assert.Equal(t, domain.RoomAvailable, rooms.statuses[b.RoomID])
}

func TestHandleCallback_SuccessAfterSweeperCancelIsBenignNoOp(t *testing.T) {
	booking := testBooking()
	booking.Status = domain.BookingCanceled // sweeper won the race
	repo := &mockBookingRepo{booking: booking}
	svc, g := newTestService(repo, &mockRoomWriter{})

	b, err := svc.HandleCallback(context.Background(), signedCallback(g, booking, ResponseCodeSuccess))
	require.NoError(t, err)

	// Never a mixed state: the booking stays canceled/unpaid.
	assert.Equal(t, domain.BookingCanceled, b.Status)
	assert.Equal(t, domain.PaymentUnpaid, b.PaymentStatus)
	assert.Equal(t, 0, repo.reconciledWrites)
}

func TestHandleCallback_UnknownBooking(t *testing.T) {
	repo := &mockBookingRepo{}
	svc, g := newTestService(repo, &mockRoomWriter{})

	params := map[string]string{
		ParamOrderID:      "9000",
		ParamAmount:       "100",
		ParamResponseCode: ResponseCodeSuccess,
	}
	params[ParamSecureHash] = g.sign(canonicalize(params))

	_, err := svc.HandleCallback(context.Background(), params)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPaymentURL_OwnerAndStateChecks(t *testing.T) {
	repo := &mockBookingRepo{booking: testBooking()}
	svc, _ := newTestService(repo, &mockRoomWriter{})
	svc.now = func() time.Time { return repo.booking.PaymentExpiresAt.Add(-time.Minute) }

	u, err := svc.GetPaymentURL(context.Background(), 42, 3, "203.0.113.7")
	require.NoError(t, err)
	assert.Contains(t, u, ParamSecureHash+"=")

	_, err = svc.GetPaymentURL(context.Background(), 42, 99, "203.0.113.7")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetPaymentURL(context.Background(), 404, 3, "203.0.113.7")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPaymentURL_ExpiredWindow(t *testing.T) {
	repo := &mockBookingRepo{booking: testBooking()}
	svc, _ := newTestService(repo, &mockRoomWriter{})
	svc.now = func() time.Time { return repo.booking.PaymentExpiresAt.Add(time.Minute) }

	_, err := svc.GetPaymentURL(context.Background(), 42, 3, "203.0.113.7")
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestGetPaymentURL_NotPending(t *testing.T) {
	booking := testBooking()
	booking.Status = domain.BookingConfirmed
	booking.PaymentStatus = domain.PaymentPaid
	repo := &mockBookingRepo{booking: booking}
	svc, _ := newTestService(repo, &mockRoomWriter{})

	_, err := svc.GetPaymentURL(context.Background(), 42, 3, "203.0.113.7")
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestHandleCallback_MalformedOrderID(t *testing.T) {
	repo := &mockBookingRepo{booking: testBooking()}
	svc, g := newTestService(repo, &mockRoomWriter{})

	params := map[string]string{
		ParamOrderID:      "not-a-number",
		ParamAmount:       "100",
		ParamResponseCode: ResponseCodeSuccess,
	}
	params[ParamSecureHash] = g.sign(canonicalize(params))

	_, err := svc.HandleCallback(context.Background(), params)
	assert.True(t, errors.Is(err, ErrInvalidCallback))
}
