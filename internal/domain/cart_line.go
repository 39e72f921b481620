package domain

import "github.com/shopspring/decimal"

// CartLine is one product in a cart. Price, discount and stock are copied from the
// product when the line is first added and are not refreshed afterwards.
type CartLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Category    string          `json:"category,omitempty"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Stock       int             `json:"stock"`
	Quantity    int             `json:"quantity"`
}

func NewCartLine(p Product, quantity int) CartLine {
	return CartLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		Category:    p.Category,
		Size:        p.Size,
		Color:       p.Color,
		UnitPrice:   p.Price,
		Discount:    p.Discount,
		Stock:       p.Stock,
		Quantity:    quantity,
	}
}

func (l CartLine) DiscountedUnitPrice() decimal.Decimal {
	return DiscountedPrice(l.UnitPrice, l.Discount)
}
