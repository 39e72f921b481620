package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/logger"
	"github.com/fjod/go_billing/internal/pricing"
	"go.uber.org/zap"
)

// Checkout prices the snapshot and records it as a pending order. The cart is
// not touched; it is cleared only once the payment succeeds.
func (s *BillingService) Checkout(ctx context.Context, snap cart.Snapshot) (*domain.Order, error) {
	if strings.TrimSpace(snap.CustomerName) == "" {
		return nil, domain.NewValidationError("customer_name", "is required")
	}
	if snap.IsEmpty() {
		return nil, domain.NewValidationError("lines", "cart is empty")
	}

	totals := pricing.PriceCart(snap.Lines)

	order, err := s.ledger.CreateOrder(ctx, domain.NewOrder{
		SessionID:      snap.ID,
		CustomerName:   strings.TrimSpace(snap.CustomerName),
		CustomerPhone:  strings.TrimSpace(snap.CustomerPhone),
		Items:          snap.Lines,
		TotalAmount:    totals.Total,
		DiscountAmount: totals.TotalDiscount,
	})
	if err != nil {
		return nil, &domain.PersistenceError{Op: "create order", Err: err}
	}

	logger.FromContext(ctx).Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.String("session_id", snap.ID),
		zap.String("total", order.TotalAmount.String()),
		zap.Int("lines", len(order.Items)))
	return order, nil
}

// CheckoutAndRequestPayment runs the whole pipeline. When the payment request
// cannot be produced the persisted order is still returned with the error, and
// the caller retries CreatePaymentRequest with its id.
func (s *BillingService) CheckoutAndRequestPayment(ctx context.Context, snap cart.Snapshot) (*domain.Order, *domain.PaymentRequest, error) {
	order, err := s.Checkout(ctx, snap)
	if err != nil {
		return nil, nil, err
	}

	req, err := s.CreatePaymentRequest(ctx, order.ID)
	if err != nil {
		var encErr *domain.EncodingError
		if errors.As(err, &encErr) {
			logger.FromContext(ctx).Warn("payment request failed, order kept for retry",
				zap.Int64("order_id", order.ID), zap.Error(err))
		}
		return order, nil, err
	}
	return order, req, nil
}
