package domain

import "errors"

var (
	ErrFeedUnavailable = errors.New("catalog feed unavailable")
	ErrFeedMalformed   = errors.New("catalog feed malformed")
	ErrNotFound        = errors.New("item not found")
	ErrDeliveryFailed  = errors.New("order delivery failed")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrPayloadTooLong  = errors.New("callback payload too long")
	ErrInvalidPayload  = errors.New("invalid callback payload")
)
