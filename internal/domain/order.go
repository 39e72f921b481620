package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID               int64           `json:"id"`
	SessionID        string          `json:"session_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerPhone    string          `json:"customer_phone"`
	Items            []CartLine      `json:"items"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	NeedsReview      bool            `json:"needs_review"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewOrder is what the billing core submits to the order ledger at checkout.
type NewOrder struct {
	SessionID      string
	CustomerName   string
	CustomerPhone  string
	Items          []CartLine
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
}

// PaymentOutcome is emitted once an order leaves the pending status.
type PaymentOutcome struct {
	OrderID    int64         `json:"order_id"`
	SessionID  string        `json:"session_id"`
	Status     PaymentStatus `json:"status"`
	Method     string        `json:"method,omitempty"`
	Amount     string        `json:"amount"`
	ResolvedAt time.Time     `json:"resolved_at"`
}
