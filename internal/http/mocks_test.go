package http

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
)

// memLedger is an in-memory order ledger.
type memLedger struct {
	mu      sync.Mutex
	orders  map[int64]*domain.Order
	nextID  int64
	ListErr error
	PingErr error
}

func newMemLedger() *memLedger {
	return &memLedger{orders: make(map[int64]*domain.Order)}
}

func (m *memLedger) CreateOrder(_ context.Context, o domain.NewOrder) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *memLedger) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memLedger) ListOrders(context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memLedger) SetPaymentReference(_ context.Context, id int64, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PaymentReference = reference
	return nil
}

func (m *memLedger) ResolvePayment(_ context.Context, id int64, status domain.PaymentStatus, method string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.PaymentStatus.IsTerminal() {
		return nil, &domain.OutcomeConflictError{OrderID: id, Current: o.PaymentStatus}
	}
	o.PaymentStatus = status
	o.PaymentMethod = method
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (m *memLedger) MarkNeedsReview(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.PaymentStatus == domain.PaymentStatusPending {
		o.NeedsReview = true
	}
	return nil
}

func (m *memLedger) Ping(context.Context) error {
	return m.PingErr
}

var errLedgerDown = errors.New("connection refused")

// stubBilling answers checkout with a fixed result.
type stubBilling struct {
	Billing
	order *domain.Order
	err   error
}

func (s stubBilling) CheckoutAndRequestPayment(context.Context, cart.Snapshot) (*domain.Order, *domain.PaymentRequest, error) {
	return s.order, nil, s.err
}

type stubSessions struct{}

func (stubSessions) Get(_ context.Context, id string) (cart.Snapshot, error) {
	return cart.Snapshot{ID: id, CustomerName: "Asha"}, nil
}
