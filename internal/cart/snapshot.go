package cart

import (
	"time"

	"github.com/fjod/go_billing/internal/domain"
)

// Snapshot is an immutable copy of a session's state. Every Session operation
// returns one so the caller decides when to refresh its view.
type Snapshot struct {
	ID            string            `json:"id"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	Lines         []domain.CartLine `json:"lines"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Line returns the line for productID, if present.
func (s Snapshot) Line(productID int64) (domain.CartLine, bool) {
	for _, l := range s.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return domain.CartLine{}, false
}

// ItemCount is the total number of units across all lines.
func (s Snapshot) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Lines = make([]domain.CartLine, len(s.Lines))
	copy(out.Lines, s.Lines)
	return out
}
