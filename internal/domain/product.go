package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"` // percent, 0..100
	Category    string          `json:"category"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DiscountedPrice returns the unit price after the product discount.
func (p Product) DiscountedPrice() decimal.Decimal {
	return DiscountedPrice(p.Price, p.Discount)
}

// InStock reports whether at least one unit can be sold.
func (p Product) InStock() bool {
	return p.Stock > 0
}

var hundred = decimal.NewFromInt(100)

// DiscountedPrice computes price - price*discount/100 without rounding.
func DiscountedPrice(price, discountPct decimal.Decimal) decimal.Decimal {
	return price.Sub(DiscountPerUnit(price, discountPct))
}

// DiscountPerUnit computes price*discount/100 without rounding.
func DiscountPerUnit(price, discountPct decimal.Decimal) decimal.Decimal {
	return price.Mul(discountPct).Div(hundred)
}

// ProductFields is the writable part of a product. Omitted discount and stock
// default to zero.
type ProductFields struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Category    string          `json:"category"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
}

func (f ProductFields) Validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return NewValidationError("name", "is required")
	case f.Price.IsNegative():
		return NewValidationError("price", "must not be negative")
	case f.Discount.IsNegative() || f.Discount.GreaterThan(hundred):
		return NewValidationError("discount", "must be between 0 and 100")
	case f.Stock < 0:
		return NewValidationError("stock", "must not be negative")
	}
	return nil
}
