package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_billing/internal/domain"
)

// mockLedger is an in-memory ledger that counts every call.
type mockLedger struct {
	mu     sync.Mutex
	orders map[int64]*domain.Order
	nextID int64

	Calls        int
	CreateErr    error
	GetErr       error
	ResolveErr   error
	ReferenceErr error
	ReviewCalls  int
}

func newMockLedger() *mockLedger {
	return &mockLedger{orders: make(map[int64]*domain.Order)}
}

func (m *mockLedger) CreateOrder(_ context.Context, o domain.NewOrder) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	now := time.Now()
	order := &domain.Order{
		ID:             m.nextID,
		SessionID:      o.SessionID,
		CustomerName:   o.CustomerName,
		CustomerPhone:  o.CustomerPhone,
		Items:          append([]domain.CartLine(nil), o.Items...),
		TotalAmount:    o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		PaymentStatus:  domain.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.orders[order.ID] = order
	cp := *order
	return &cp, nil
}

func (m *mockLedger) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockLedger) SetPaymentReference(_ context.Context, id int64, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.ReferenceErr != nil {
		return m.ReferenceErr
	}
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PaymentReference = reference
	return nil
}

func (m *mockLedger) ResolvePayment(_ context.Context, id int64, status domain.PaymentStatus, method string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if !domain.CanTransitionTo(o.PaymentStatus, status) {
		return nil, &domain.OutcomeConflictError{OrderID: id, Current: o.PaymentStatus}
	}
	o.PaymentStatus = status
	o.PaymentMethod = method
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (m *mockLedger) MarkNeedsReview(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.ReviewCalls++
	if o, ok := m.orders[id]; ok && o.PaymentStatus == domain.PaymentStatusPending {
		o.NeedsReview = true
	}
	return nil
}

func (m *mockLedger) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// flakyGenerator fails the first FailTimes calls, then delegates.
type flakyGenerator struct {
	next      RequestGenerator
	FailTimes int
	calls     int
}

func (f *flakyGenerator) Generate(ctx context.Context, order *domain.Order) (*domain.PaymentRequest, error) {
	f.calls++
	if f.calls <= f.FailTimes {
		return nil, &domain.EncodingError{OrderID: order.ID, Err: errors.New("qr encoder unavailable")}
	}
	return f.next.Generate(ctx, order)
}
