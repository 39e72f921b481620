package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(PaymentStatusPending, PaymentStatusSuccess))
	assert.True(t, CanTransitionTo(PaymentStatusPending, PaymentStatusFailed))
	assert.False(t, CanTransitionTo(PaymentStatusPending, PaymentStatusPending))
	assert.False(t, CanTransitionTo(PaymentStatusSuccess, PaymentStatusFailed))
	assert.False(t, CanTransitionTo(PaymentStatusFailed, PaymentStatusSuccess))
	assert.False(t, CanTransitionTo(PaymentStatusSuccess, PaymentStatusSuccess))
}

func TestParsePaymentStatus(t *testing.T) {
	s, err := ParsePaymentStatus("success")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusSuccess, s)

	_, err = ParsePaymentStatus("refunded")
	assert.Error(t, err)
}

func TestDiscountedPrice(t *testing.T) {
	p := Product{Price: decimal.NewFromInt(899), Discount: decimal.NewFromInt(10)}
	assert.True(t, p.DiscountedPrice().Equal(decimal.RequireFromString("809.1")))

	free := Product{Price: decimal.NewFromInt(100), Discount: decimal.NewFromInt(100)}
	assert.True(t, free.DiscountedPrice().IsZero())
}

func TestErrorTaxonomy(t *testing.T) {
	assert.ErrorIs(t, NewValidationError("customer_name", "required"), ErrValidation)
	assert.ErrorIs(t, &OutOfStockError{ProductID: 1, Requested: 4, Available: 3}, ErrOutOfStock)

	cause := errors.New("connection refused")
	perr := &PersistenceError{Op: "create order", Err: cause}
	assert.ErrorIs(t, perr, ErrPersistence)
	assert.ErrorIs(t, perr, cause)

	assert.ErrorIs(t, &EncodingError{OrderID: 7, Err: cause}, ErrEncoding)
	assert.ErrorIs(t, &OutcomeConflictError{OrderID: 7, Current: PaymentStatusSuccess}, ErrPaymentOutcomeConflict)

	var verr *ValidationError
	require.ErrorAs(t, NewValidationError("lines", "cart is empty"), &verr)
	assert.Equal(t, "lines", verr.Field)
}
