package domain

import "time"

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room belongs to a Hotel. Status is advisory; the authoritative
// double-booking check is interval-based, not status-based.
type Room struct {
	ID            int64      `json:"id"`
	HotelID       int64      `json:"hotel_id" validate:"required"`
	Number        string     `json:"number" validate:"required"`
	Description   string     `json:"description,omitempty"`
	Capacity      int        `json:"capacity" validate:"gt=0"`
	PricePerNight float64    `json:"price_per_night" validate:"gte=0"`
	Status        RoomStatus `json:"status"`
	Photos        []string   `json:"photos,omitempty" gorm:"serializer:json"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Hotel struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	Description string    `json:"description,omitempty"`
	Stars       int       `json:"stars,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Rooms []Room `json:"rooms,omitempty" gorm:"foreignKey:HotelID"`
}
