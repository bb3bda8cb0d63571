package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Booking is a reservation of a room for a half-open date interval
// [CheckIn, CheckOut). TotalPrice is frozen at creation time and never
// recalculated from the live room price.
type Booking struct {
	ID            int64         `json:"id"`
	RoomID        int64         `json:"room_id" validate:"required"`
	HotelID       int64         `json:"hotel_id" validate:"required"`
	UserID        int64         `json:"user_id" validate:"required"`
	CheckIn       time.Time     `json:"check_in" validate:"required"`
	CheckOut      time.Time     `json:"check_out" validate:"required"`
	TotalPrice    float64       `json:"total_price" validate:"gte=0"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	// Deadline for completing payment. After it passes an unpaid pending
	// booking is auto-canceled by the sweeper.
	PaymentExpiresAt time.Time `json:"payment_expires_at"`

	// Gateway reconciliation fields, populated only by a successful callback.
	TransactionID string `json:"transaction_id,omitempty"`
	BankCode      string `json:"bank_code,omitempty"`
	BankTranNo    string `json:"bank_tran_no,omitempty"`
	CardType      string `json:"card_type,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Room *Room `json:"room,omitempty" gorm:"foreignKey:RoomID"`
}

// Nights returns the number of nights covered by the interval.
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Overlaps reports whether [b.CheckIn, b.CheckOut) intersects
// [checkIn, checkOut).
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}

func (b *Booking) IsTerminal() bool {
	return b.Status == BookingConfirmed || b.Status == BookingCanceled
}
