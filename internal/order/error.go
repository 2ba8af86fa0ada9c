package order

import "errors"

var (
	ErrAlreadyCreated  = errors.New("order already created")
	ErrNotCreated      = errors.New("order not created")
	ErrAlreadyRefunded = errors.New("order already refunded")
	ErrDuplicateOrder  = errors.New("order id already exists in store")

	ErrNameTooLong    = errors.New("cannot be longer than 200 characters")
	ErrMissingOrderID = errors.New("orderId is required")
	ErrNoProducts     = errors.New("order needs at least one product")
	ErrMissingBuyer   = errors.New("buyer name and email are required")
)
