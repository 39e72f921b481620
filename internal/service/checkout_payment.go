package service

import (
	"context"
	"errors"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/logger"
	"go.uber.org/zap"
)

// CreatePaymentRequest produces the payment request for a pending order.
// Calling it again for the same order returns the outstanding request.
func (s *BillingService) CreatePaymentRequest(ctx context.Context, orderID int64) (*domain.PaymentRequest, error) {
	if req, ok := s.PaymentRequest(orderID); ok {
		return req, nil
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus.IsTerminal() {
		return nil, &domain.OutcomeConflictError{OrderID: orderID, Current: order.PaymentStatus}
	}

	req, err := s.generator.Generate(ctx, order)
	if err != nil {
		return nil, err
	}

	if req.Reference != order.PaymentReference {
		if err := s.ledger.SetPaymentReference(ctx, orderID, req.Reference); err != nil {
			return nil, &domain.PersistenceError{Op: "set payment reference", OrderID: orderID, Err: err}
		}
	}

	s.keepRequest(req)
	logger.FromContext(ctx).Info("payment request issued",
		zap.Int64("order_id", orderID),
		zap.String("reference", req.Reference),
		zap.Int64("amount_minor", req.AmountMinor))
	return req, nil
}

func (s *BillingService) getOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.ledger.GetOrder(ctx, orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get order", OrderID: orderID, Err: err}
	}
	return order, nil
}
