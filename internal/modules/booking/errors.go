package booking

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotFound        = errors.New("booking not found")
	ErrForbidden       = errors.New("booking belongs to another user")
	ErrRoomUnavailable = errors.New("room is not available for the selected dates")
	ErrAlreadyCanceled = errors.New("booking is already canceled")
)
