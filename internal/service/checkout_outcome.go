package service

import (
	"context"
	"errors"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/logger"
	"github.com/fjod/go_billing/internal/session"
	"go.uber.org/zap"
)

// ResolveOutcome settles a pending order. On success the originating session is
// cleared; on failure the cart is left for another attempt. Resolving an order
// that is already settled returns an *domain.OutcomeConflictError and changes
// nothing.
func (s *BillingService) ResolveOutcome(ctx context.Context, orderID int64, status domain.PaymentStatus, method string) (*domain.Order, error) {
	log := logger.FromContext(ctx).With(zap.Int64("order_id", orderID))

	if !status.IsTerminal() {
		return nil, domain.NewValidationError("status", "must be success or failed")
	}

	order, err := s.ledger.ResolvePayment(ctx, orderID, status, method)
	var conflict *domain.OutcomeConflictError
	switch {
	case errors.As(err, &conflict):
		log.Warn("payment outcome already resolved",
			zap.String("current", conflict.Current.String()),
			zap.String("requested", status.String()))
		return nil, err
	case errors.Is(err, domain.ErrOrderNotFound):
		return nil, err
	case err != nil:
		return nil, &domain.PersistenceError{Op: "resolve payment", OrderID: orderID, Err: err}
	}

	if status == domain.PaymentStatusSuccess && order.SessionID != "" {
		_, err := s.sessions.Clear(ctx, order.SessionID)
		if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			log.Error("failed to clear session after payment",
				zap.String("session_id", order.SessionID), zap.Error(err))
		}
	}

	s.discardRequest(orderID)
	s.notifier.Publish(domain.PaymentOutcome{
		OrderID:    order.ID,
		SessionID:  order.SessionID,
		Status:     order.PaymentStatus,
		Method:     order.PaymentMethod,
		Amount:     order.TotalAmount.String(),
		ResolvedAt: order.UpdatedAt,
	})

	log.Info("payment resolved", zap.String("status", status.String()), zap.String("method", method))
	return order, nil
}
