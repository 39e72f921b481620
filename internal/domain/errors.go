package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrOutOfStock             = errors.New("out of stock")
	ErrPersistence            = errors.New("persistence failure")
	ErrEncoding               = errors.New("payment encoding failure")
	ErrPaymentOutcomeConflict = errors.New("payment outcome already resolved")
	ErrOrderNotFound          = errors.New("order not found")
	ErrProductNotFound        = errors.New("product not found")
)

// ValidationError is a user-correctable problem with a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type OutOfStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %d: requested %d, only %d in stock", e.ProductID, e.Requested, e.Available)
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

// PersistenceError wraps a ledger or catalog failure. OrderID is zero when
// no order exists yet.
type PersistenceError struct {
	Op      string
	OrderID int64
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.OrderID != 0 {
		return fmt.Sprintf("%s (order %d): %v", e.Op, e.OrderID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

type EncodingError struct {
	OrderID int64
	Err     error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("payment request for order %d: %v", e.OrderID, e.Err)
}

func (e *EncodingError) Unwrap() []error { return []error{ErrEncoding, e.Err} }

type OutcomeConflictError struct {
	OrderID int64
	Current PaymentStatus
}

func (e *OutcomeConflictError) Error() string {
	return fmt.Sprintf("order %d is already %s", e.OrderID, e.Current)
}

func (e *OutcomeConflictError) Unwrap() error { return ErrPaymentOutcomeConflict }
