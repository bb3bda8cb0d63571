package payment

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidCallback  = errors.New("malformed callback")
	ErrAmountMismatch   = errors.New("amount mismatch")
	ErrNotFound         = errors.New("booking not found")
	ErrForbidden        = errors.New("booking belongs to another user")
	ErrNotPayable       = errors.New("booking is not awaiting payment")
)
