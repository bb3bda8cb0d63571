package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stayhub/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrOverlap is returned when a reservation would intersect an existing
// non-canceled booking on the same room.
var ErrOverlap = errors.New("booking interval overlaps an existing reservation")

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID               int64      `gorm:"column:id;primaryKey"`
	RoomID           int64      `gorm:"column:room_id;index"`
	HotelID          int64      `gorm:"column:hotel_id;index"`
	UserID           int64      `gorm:"column:user_id;index"`
	CheckIn          time.Time  `gorm:"column:check_in"`
	CheckOut         time.Time  `gorm:"column:check_out"`
	TotalPrice       float64    `gorm:"column:total_price"`
	Status           string     `gorm:"column:status;index"`
	PaymentStatus    string     `gorm:"column:payment_status"`
	PaymentExpiresAt time.Time  `gorm:"column:payment_expires_at;index"`
	TransactionID    *string    `gorm:"column:transaction_id"`
	BankCode         *string    `gorm:"column:bank_code"`
	BankTranNo       *string    `gorm:"column:bank_tran_no"`
	CardType         *string    `gorm:"column:card_type"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	CanceledAt       *time.Time `gorm:"column:canceled_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	return &domain.Booking{
		ID:               m.ID,
		RoomID:           m.RoomID,
		HotelID:          m.HotelID,
		UserID:           m.UserID,
		CheckIn:          m.CheckIn,
		CheckOut:         m.CheckOut,
		TotalPrice:       m.TotalPrice,
		Status:           domain.BookingStatus(m.Status),
		PaymentStatus:    domain.PaymentStatus(m.PaymentStatus),
		PaymentExpiresAt: m.PaymentExpiresAt,
		TransactionID:    deref(m.TransactionID),
		BankCode:         deref(m.BankCode),
		BankTranNo:       deref(m.BankTranNo),
		CardType:         deref(m.CardType),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		CanceledAt:       m.CanceledAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:               b.ID,
		RoomID:           b.RoomID,
		HotelID:          b.HotelID,
		UserID:           b.UserID,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		TotalPrice:       b.TotalPrice,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		PaymentExpiresAt: b.PaymentExpiresAt,
		TransactionID:    nullable(b.TransactionID),
		BankCode:         nullable(b.BankCode),
		BankTranNo:       nullable(b.BankTranNo),
		CardType:         nullable(b.CardType),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		CanceledAt:       b.CanceledAt,
	}
}

// CreateReserved performs the check-then-insert atomically: inside a
// serializable transaction it counts non-canceled bookings on the room
// whose half-open interval intersects [b.CheckIn, b.CheckOut) and
// inserts the new row only when the count is zero. A unique/exclusion
// constraint violation on commit is also surfaced as ErrOverlap so a
// concurrent writer that slipped past the count still loses cleanly.
func (r *BookingRepository) CreateReserved(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		q := `
SELECT COUNT(1)
FROM bookings
WHERE room_id = ?
  AND status <> 'canceled'
  AND check_in < ?
  AND check_out > ?
`
		if err := tx.Raw(q, m.RoomID, m.CheckOut, m.CheckIn).Scan(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrOverlap
		}
		return tx.Create(&m).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		if isOverlapConstraintErr(err) {
			return ErrOverlap
		}
		return err
	}

	*b = *toDomainBooking(m)
	return nil
}

func isOverlapConstraintErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 unique_violation, 23P01 exclusion_violation
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return false
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

// Reconciliation carries the gateway fields written on a successful
// payment callback.
type Reconciliation struct {
	TransactionID string
	BankCode      string
	BankTranNo    string
	CardType      string
}

// ConfirmPaid transitions pending/unpaid to confirmed/paid in a single
// conditional update. The returned flag is false when zero rows matched,
// meaning another writer (a duplicate callback or the sweeper) got there
// first.
func (r *BookingRepository) ConfirmPaid(ctx context.Context, bookingID int64, rec Reconciliation) (bool, error) {
	res := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			bookingID, string(domain.BookingPending), string(domain.PaymentUnpaid)).
		Updates(map[string]any{
			"status":         string(domain.BookingConfirmed),
			"payment_status": string(domain.PaymentPaid),
			"transaction_id": rec.TransactionID,
			"bank_code":      rec.BankCode,
			"bank_tran_no":   rec.BankTranNo,
			"card_type":      rec.CardType,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CancelIfPendingUnpaid is the failure-path twin of ConfirmPaid, shared
// by the failed-callback handler and the expiration sweeper. Payment
// status stays unpaid.
func (r *BookingRepository) CancelIfPendingUnpaid(ctx context.Context, bookingID int64) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			bookingID, string(domain.BookingPending), string(domain.PaymentUnpaid)).
		Updates(map[string]any{
			"status":      string(domain.BookingCanceled),
			"canceled_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Cancel marks any not-yet-canceled booking canceled. Payment status is
// left untouched: canceling a paid booking does not unpay it.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID int64) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ? AND status <> ?", bookingID, string(domain.BookingCanceled)).
		Updates(map[string]any{
			"status":      string(domain.BookingCanceled),
			"canceled_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindExpiredPending returns bookings the sweeper may close: pending,
// unpaid, payment deadline behind now.
func (r *BookingRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ? AND payment_expires_at < ?",
			string(domain.BookingPending), string(domain.PaymentUnpaid), now).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// BusyInterval is an occupied date range on a room.
type BusyInterval struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

func (r *BookingRepository) BusyIntervals(ctx context.Context, roomID int64, from, to time.Time) ([]BusyInterval, error) {
	var out []BusyInterval
	q := `
SELECT check_in, check_out
FROM bookings
WHERE room_id = ?
  AND status <> 'canceled'
  AND check_in < ?
  AND check_out > ?
ORDER BY check_in
`
	if err := r.db.WithContext(ctx).Raw(q, roomID, to, from).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
