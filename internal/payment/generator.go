package payment

import (
	"context"
	"time"

	"github.com/fjod/go_billing/internal/domain"
)

// Generator builds payment requests for pending orders.
type Generator struct {
	merchant Merchant
	gateway  Gateway
	qrSize   int
	now      func() time.Time
}

func NewGenerator(merchant Merchant, gateway Gateway) *Generator {
	if gateway == nil {
		gateway = LocalGateway{}
	}
	return &Generator{merchant: merchant, gateway: gateway, qrSize: DefaultQRSize, now: time.Now}
}

// Generate builds the request for order. An order that already carries a
// gateway reference keeps it, so retries do not open a second gateway order.
// Every failure is an *domain.EncodingError; the order itself is untouched.
func (g *Generator) Generate(ctx context.Context, order *domain.Order) (*domain.PaymentRequest, error) {
	fail := func(err error) (*domain.PaymentRequest, error) {
		return nil, &domain.EncodingError{OrderID: order.ID, Err: err}
	}

	minor, err := MinorUnits(order.TotalAmount)
	if err != nil {
		return fail(err)
	}

	payload, err := BuildPayload(g.merchant, order.ID, order.TotalAmount)
	if err != nil {
		return fail(err)
	}

	png, err := EncodeQR(payload, g.qrSize)
	if err != nil {
		return fail(err)
	}

	ref := order.PaymentReference
	if ref == "" {
		ref, err = g.gateway.CreateOrder(ctx, GatewayOrder{
			OrderID:     order.ID,
			AmountMinor: minor,
			Currency:    domain.CurrencyINR,
		})
		if err != nil {
			return fail(err)
		}
	}

	return &domain.PaymentRequest{
		OrderID:     order.ID,
		Reference:   ref,
		Amount:      order.TotalAmount,
		AmountMinor: minor,
		Currency:    domain.CurrencyINR,
		Payload:     payload,
		QRCode:      png,
		CreatedAt:   g.now(),
	}, nil
}
