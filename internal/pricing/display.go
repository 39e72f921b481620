package pricing

import "github.com/shopspring/decimal"

// Summary is the rounded view of Totals used for receipts and API responses.
type Summary struct {
	Gross    string `json:"gross"`
	Discount string `json:"discount"`
	Subtotal string `json:"subtotal"`
	Total    string `json:"total"`
}

func (t Totals) Summary() Summary {
	return Summary{
		Gross:    Format(t.Gross()),
		Discount: Format(t.TotalDiscount),
		Subtotal: Format(t.Subtotal),
		Total:    Format(t.Total),
	}
}

// Format rounds half away from zero to two places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
