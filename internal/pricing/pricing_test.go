package pricing

import (
	"math/rand"
	"testing"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id int64, price string, discount int64, qty int) domain.CartLine {
	return domain.CartLine{
		ProductID: id,
		UnitPrice: decimal.RequireFromString(price),
		Discount:  decimal.NewFromInt(discount),
		Stock:     qty + 10,
		Quantity:  qty,
	}
}

func TestPriceCart_ShirtScenario(t *testing.T) {
	totals := PriceCart([]domain.CartLine{line(1, "899", 10, 2)})

	require.Len(t, totals.Lines, 1)
	assert.Equal(t, "809.1", totals.Lines[0].DiscountedUnit.String())
	assert.Equal(t, "1618.2", totals.Subtotal.String())
	assert.Equal(t, "179.8", totals.TotalDiscount.String())
	assert.Equal(t, "1618.2", totals.Total.String())
	assert.Equal(t, "1798", totals.Gross().String())
}

func TestPriceCart_Empty(t *testing.T) {
	totals := PriceCart(nil)

	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.TotalDiscount.IsZero())
	assert.Empty(t, totals.Lines)
}

func TestPriceCart_SeedCatalog(t *testing.T) {
	lines := []domain.CartLine{
		line(1, "899", 10, 1),
		line(2, "1299", 15, 2),
		line(3, "599", 5, 3),
		line(4, "1599", 20, 1),
		line(5, "2199", 25, 1),
	}

	totals := PriceCart(lines)

	// 809.1 + 2*1104.15 + 3*569.05 + 1279.2 + 1649.25
	assert.Equal(t, "7653", totals.Total.String())
	assert.Equal(t, "1439", totals.TotalDiscount.String())
	assert.Equal(t, "9092", totals.Gross().String())
}

func TestPriceCart_Identities(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		var lines []domain.CartLine
		for j := 0; j < rng.Intn(6); j++ {
			price := decimal.New(rng.Int63n(500000), -2)
			lines = append(lines, domain.CartLine{
				ProductID: int64(j + 1),
				UnitPrice: price,
				Discount:  decimal.NewFromInt(rng.Int63n(101)),
				Stock:     50,
				Quantity:  rng.Intn(50) + 1,
			})
		}

		totals := PriceCart(lines)

		assert.True(t, totals.Subtotal.Equal(totals.Total))
		assert.False(t, totals.Total.IsNegative())
		assert.True(t, totals.Gross().Sub(totals.TotalDiscount).Equal(totals.Subtotal))
	}
}

func TestPriceCart_Idempotent(t *testing.T) {
	lines := []domain.CartLine{line(1, "333.33", 33, 3), line(2, "10", 0, 1)}

	first := PriceCart(lines)
	second := PriceCart(lines)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.TotalDiscount.Equal(second.TotalDiscount))
	assert.Equal(t, first.Summary(), second.Summary())
}

func TestPriceCart_ContractViolationsPanic(t *testing.T) {
	assert.Panics(t, func() { PriceCart([]domain.CartLine{line(1, "10", 0, -1)}) })
	assert.Panics(t, func() { PriceCart([]domain.CartLine{line(1, "-10", 0, 1)}) })
	assert.Panics(t, func() { PriceCart([]domain.CartLine{line(1, "10", 101, 1)}) })
}

func TestSummary_RoundsOnlyForDisplay(t *testing.T) {
	totals := PriceCart([]domain.CartLine{line(1, "0.125", 0, 3)})

	assert.Equal(t, "0.375", totals.Total.String())
	assert.Equal(t, "0.38", totals.Summary().Total)
	assert.Equal(t, "0.00", totals.Summary().Discount)
}
