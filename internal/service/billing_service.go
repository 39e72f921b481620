// Package service runs the billing pipeline: a cart snapshot is priced and
// persisted as an order, the order gets a payment request, and the payment
// outcome settles the order and the originating session.
package service

import (
	"context"
	"sync"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
)

type Ledger interface {
	CreateOrder(ctx context.Context, order domain.NewOrder) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	SetPaymentReference(ctx context.Context, id int64, reference string) error
	ResolvePayment(ctx context.Context, id int64, status domain.PaymentStatus, method string) (*domain.Order, error)
	MarkNeedsReview(ctx context.Context, id int64) error
}

type SessionClearer interface {
	Clear(ctx context.Context, id string) (cart.Snapshot, error)
}

type RequestGenerator interface {
	Generate(ctx context.Context, order *domain.Order) (*domain.PaymentRequest, error)
}

type Notifier interface {
	Publish(outcome domain.PaymentOutcome) int
	Subscribe(orderID int64) (<-chan domain.PaymentOutcome, func())
}

type BillingService struct {
	ledger    Ledger
	sessions  SessionClearer
	generator RequestGenerator
	notifier  Notifier

	mu      sync.Mutex
	pending map[int64]*domain.PaymentRequest
}

func NewBillingService(ledger Ledger, sessions SessionClearer, generator RequestGenerator, notifier Notifier) *BillingService {
	return &BillingService{
		ledger:    ledger,
		sessions:  sessions,
		generator: generator,
		notifier:  notifier,
		pending:   make(map[int64]*domain.PaymentRequest),
	}
}

// PaymentRequest returns the outstanding request for an order, if any.
func (s *BillingService) PaymentRequest(orderID int64) (*domain.PaymentRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[orderID]
	return req, ok
}

func (s *BillingService) keepRequest(req *domain.PaymentRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[req.OrderID] = req
}

func (s *BillingService) discardRequest(orderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, orderID)
}
