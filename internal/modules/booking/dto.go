package booking

import "time"

type CreateReservationRequest struct {
	RoomID   int64     `json:"room_id" binding:"required"`
	CheckIn  time.Time `json:"check_in" binding:"required"`
	CheckOut time.Time `json:"check_out" binding:"required"`
}
