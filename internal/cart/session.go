// Package cart is the billing session state machine: customer details plus the
// lines being rung up. A Session has a single writer; callers that share one across
// goroutines must serialize access (see package session).
package cart

import (
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_billing/internal/domain"
)

type Session struct {
	state Snapshot
	now   func() time.Time
}

func New(id string) *Session {
	s := &Session{state: Snapshot{ID: id}, now: time.Now}
	s.state.UpdatedAt = s.now()
	return s
}

// Restore rebuilds a session from a previously taken snapshot.
func Restore(snap Snapshot) *Session {
	return &Session{state: snap.clone(), now: time.Now}
}

func (s *Session) ID() string {
	return s.state.ID
}

func (s *Session) Snapshot() Snapshot {
	return s.state.clone()
}

func (s *Session) SetCustomer(name, phone string) Snapshot {
	s.state.CustomerName = strings.TrimSpace(name)
	s.state.CustomerPhone = strings.TrimSpace(phone)
	return s.touch()
}

// AddLine adds qty units of product. An existing line grows up to its stock
// snapshot and anything beyond that is dropped without an error. A new line starts
// at min(qty, stock).
func (s *Session) AddLine(product domain.Product, qty int) (Snapshot, error) {
	if qty <= 0 {
		return s.Snapshot(), domain.NewValidationError("quantity", "must be positive")
	}

	if i := s.indexOf(product.ID); i >= 0 {
		line := &s.state.Lines[i]
		line.Quantity = min(line.Quantity+qty, line.Stock)
		return s.touch(), nil
	}

	if !product.InStock() {
		return s.Snapshot(), &domain.OutOfStockError{ProductID: product.ID, Requested: qty, Available: 0}
	}
	s.state.Lines = append(s.state.Lines, domain.NewCartLine(product, min(qty, product.Stock)))
	return s.touch(), nil
}

// SetQuantity replaces a line's quantity. Zero removes the line; more than the
// stock snapshot is rejected and leaves the cart unchanged.
func (s *Session) SetQuantity(productID int64, qty int) (Snapshot, error) {
	if qty < 0 {
		return s.Snapshot(), domain.NewValidationError("quantity", "must not be negative")
	}
	if qty == 0 {
		return s.RemoveLine(productID), nil
	}

	i := s.indexOf(productID)
	if i < 0 {
		return s.Snapshot(), fmt.Errorf("product %d: %w", productID, ErrLineNotFound)
	}
	line := &s.state.Lines[i]
	if qty > line.Stock {
		return s.Snapshot(), &domain.OutOfStockError{ProductID: productID, Requested: qty, Available: line.Stock}
	}
	line.Quantity = qty
	return s.touch(), nil
}

func (s *Session) RemoveLine(productID int64) Snapshot {
	i := s.indexOf(productID)
	if i < 0 {
		return s.Snapshot()
	}
	s.state.Lines = append(s.state.Lines[:i], s.state.Lines[i+1:]...)
	return s.touch()
}

// Clear empties the cart and forgets the customer.
func (s *Session) Clear() Snapshot {
	s.state.Lines = nil
	s.state.CustomerName = ""
	s.state.CustomerPhone = ""
	return s.touch()
}

func (s *Session) indexOf(productID int64) int {
	for i := range s.state.Lines {
		if s.state.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Session) touch() Snapshot {
	s.state.UpdatedAt = s.now()
	return s.Snapshot()
}

// checkInvariants reports the first broken line invariant, if any.
func (s Snapshot) checkInvariants() error {
	seen := make(map[int64]struct{}, len(s.Lines))
	for _, l := range s.Lines {
		if l.Quantity <= 0 || l.Quantity > l.Stock {
			return fmt.Errorf("product %d: quantity %d outside 1..%d", l.ProductID, l.Quantity, l.Stock)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("product %d appears twice", l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}
