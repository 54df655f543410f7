package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrSubmissionInFlight = errors.New("an order placement for this customer is already in progress")
	ErrMissingOrderID     = errors.New("order response does not contain an order id")
)

// HeaderCreationError means the order itself could not be created. Nothing else was attempted.
type HeaderCreationError struct {
	Err error
}

func (e *HeaderCreationError) Error() string {
	return fmt.Sprintf("failed to create order: %v", e.Err)
}

func (e *HeaderCreationError) Unwrap() error {
	return e.Err
}
