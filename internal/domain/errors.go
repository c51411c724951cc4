package domain

import "errors"

var (
	ErrGroupNotFound        = errors.New("capacity group not found")
	ErrTicketOptionNotFound = errors.New("ticket option not found")
	ErrQuotaNameRequired    = errors.New("quota name required")
	ErrInvalidQuotaType     = errors.New("invalid quota type")
	ErrInvalidCapacity      = errors.New("invalid capacity")
	ErrCapacityBelowSold    = errors.New("capacity below sold amount")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidTicketLine    = errors.New("invalid ticket line")
	ErrInvalidID            = errors.New("invalid id")
)
