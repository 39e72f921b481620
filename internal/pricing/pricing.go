// Package pricing turns cart lines into payable totals. It has no state and no
// side effects: the same lines always price to the same totals.
package pricing

import (
	"fmt"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/shopspring/decimal"
)

var maxDiscount = decimal.NewFromInt(100)

type LineTotals struct {
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	DiscountedUnit decimal.Decimal `json:"discounted_unit"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
}

// Totals holds unrounded sums. Total equals Subtotal because the discount is
// already applied per unit.
type Totals struct {
	Lines         []LineTotals    `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
}

// Gross is the amount before any discount was applied.
func (t Totals) Gross() decimal.Decimal {
	return t.Subtotal.Add(t.TotalDiscount)
}

// PriceCart sums the lines in full precision. A negative price, negative quantity or
// a discount outside 0..100 is a programming error and panics.
func PriceCart(lines []domain.CartLine) Totals {
	totals := Totals{
		Lines:         make([]LineTotals, 0, len(lines)),
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	for _, line := range lines {
		mustBeValid(line)

		qty := decimal.NewFromInt(int64(line.Quantity))
		unit := line.DiscountedUnitPrice()
		lt := LineTotals{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			DiscountedUnit: unit,
			Subtotal:       unit.Mul(qty),
			Discount:       domain.DiscountPerUnit(line.UnitPrice, line.Discount).Mul(qty),
		}
		totals.Lines = append(totals.Lines, lt)
		totals.Subtotal = totals.Subtotal.Add(lt.Subtotal)
		totals.TotalDiscount = totals.TotalDiscount.Add(lt.Discount)
	}

	totals.Total = totals.Subtotal
	return totals
}

func mustBeValid(line domain.CartLine) {
	if line.Quantity < 0 {
		panic(fmt.Sprintf("pricing: negative quantity %d for product %d", line.Quantity, line.ProductID))
	}
	if line.UnitPrice.IsNegative() {
		panic(fmt.Sprintf("pricing: negative price %s for product %d", line.UnitPrice, line.ProductID))
	}
	if line.Discount.IsNegative() || line.Discount.GreaterThan(maxDiscount) {
		panic(fmt.Sprintf("pricing: discount %s%% out of range for product %d", line.Discount, line.ProductID))
	}
}
