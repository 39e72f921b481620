package service

import (
	"context"
	"time"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/logger"
	"go.uber.org/zap"
)

// AwaitOutcome blocks until the order is settled, the timeout passes or ctx is
// done. On timeout the order stays pending, is flagged for review and is
// returned together with ErrOutcomeTimeout.
func (s *BillingService) AwaitOutcome(ctx context.Context, orderID int64, timeout time.Duration) (*domain.Order, error) {
	outcomes, unsubscribe := s.notifier.Subscribe(orderID)
	defer unsubscribe()

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus.IsTerminal() {
		return order, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-outcomes:
		return s.getOrder(ctx, orderID)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if err := s.ledger.MarkNeedsReview(ctx, orderID); err != nil {
		return nil, &domain.PersistenceError{Op: "mark needs review", OrderID: orderID, Err: err}
	}

	order, err = s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// settled between the timer and the flag
	if order.PaymentStatus.IsTerminal() {
		return order, nil
	}
	logger.FromContext(ctx).Warn("payment outcome timed out, order flagged for review",
		zap.Int64("order_id", orderID), zap.Duration("timeout", timeout))
	return order, ErrOutcomeTimeout
}
