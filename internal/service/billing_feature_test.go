package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/notify"
	"github.com/fjod/go_billing/internal/payment"
	"github.com/fjod/go_billing/internal/session"
	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type billingTestContext struct {
	ledger   *mockLedger
	sessions *session.Manager
	svc      *BillingService
	catalog  map[string]domain.Product

	snap    cart.Snapshot
	order   *domain.Order
	request *domain.PaymentRequest
	err     error
}

func (c *billingTestContext) reset() {
	c.ledger = newMockLedger()
	c.sessions = session.NewManager(session.NewMemoryRepository(), nil, zap.NewNop())
	c.svc = NewBillingService(c.ledger, c.sessions, payment.NewGenerator(shop, nil), notify.NewBroker())
	c.catalog = make(map[string]domain.Product)
	c.snap = cart.Snapshot{}
	c.order = nil
	c.request = nil
	c.err = nil
}

func (c *billingTestContext) theCatalogHas(name string, price, discount, stock int) error {
	c.catalog[name] = domain.Product{
		ID:       int64(len(c.catalog) + 1),
		Name:     name,
		Price:    decimal.NewFromInt(int64(price)),
		Discount: decimal.NewFromInt(int64(discount)),
		Stock:    stock,
	}
	return nil
}

func (c *billingTestContext) aBillingSessionForCustomer(name string) error {
	ctx := context.Background()
	snap, err := c.sessions.Open(ctx)
	if err != nil {
		return err
	}
	c.snap, err = c.sessions.SetCustomer(ctx, snap.ID, name, "")
	return err
}

func (c *billingTestContext) theCashierAddsTimes(qty int, name string, times int) error {
	p, ok := c.catalog[name]
	if !ok {
		return fmt.Errorf("no product %q in catalog", name)
	}
	for iter := 0; iter < times; iter++ {
		snap, err := c.sessions.AddLine(context.Background(), c.snap.ID, p, qty)
		if err != nil {
			return err
		}
		c.snap = snap
	}
	return nil
}

func (c *billingTestContext) theCashierAdds(qty int, name string) error {
	return c.theCashierAddsTimes(qty, name, 1)
}

func (c *billingTestContext) theCashierChecksOut() error {
	c.order, c.request, c.err = c.svc.CheckoutAndRequestPayment(context.Background(), c.snap)
	return nil
}

func (c *billingTestContext) theOrderIsPendingWithTotals(total, discount string) error {
	if c.err != nil {
		return fmt.Errorf("checkout failed: %v", c.err)
	}
	if c.order.PaymentStatus != domain.PaymentStatusPending {
		return fmt.Errorf("expected pending order, got %s", c.order.PaymentStatus)
	}
	if got := c.order.TotalAmount.String(); got != total {
		return fmt.Errorf("expected total %s, got %s", total, got)
	}
	if got := c.order.DiscountAmount.String(); got != discount {
		return fmt.Errorf("expected discount %s, got %s", discount, got)
	}
	return nil
}

func (c *billingTestContext) aPaymentRequestIsIssued(paise int) error {
	if c.request == nil {
		return errors.New("no payment request was issued")
	}
	if c.request.AmountMinor != int64(paise) {
		return fmt.Errorf("expected %d paise, got %d", paise, c.request.AmountMinor)
	}
	return nil
}

func (c *billingTestContext) theQRCodeDecodesToThePayload() error {
	img, _, err := image.Decode(bytes.NewReader(c.request.QRCode))
	if err != nil {
		return err
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return err
	}
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return err
	}
	if result.GetText() != c.request.Payload {
		return fmt.Errorf("qr decodes to %q, payload is %q", result.GetText(), c.request.Payload)
	}
	return nil
}

func (c *billingTestContext) thePaymentIsReportedAs(status string) error {
	if c.order == nil {
		return fmt.Errorf("no order to resolve: %v", c.err)
	}
	c.order, c.err = c.svc.ResolveOutcome(context.Background(), c.order.ID, domain.PaymentStatus(status), "upi")
	return c.err
}

func (c *billingTestContext) theOrderIs(status string) error {
	stored, err := c.ledger.GetOrder(context.Background(), c.order.ID)
	if err != nil {
		return err
	}
	if string(stored.PaymentStatus) != status {
		return fmt.Errorf("expected order %s, got %s", status, stored.PaymentStatus)
	}
	return nil
}

func (c *billingTestContext) theCartIsEmpty() error {
	snap, err := c.sessions.Get(context.Background(), c.snap.ID)
	if err != nil {
		return err
	}
	if !snap.IsEmpty() {
		return fmt.Errorf("expected empty cart, got %d lines", len(snap.Lines))
	}
	return nil
}

func (c *billingTestContext) reportingAgainIsRejected(status string) error {
	_, err := c.svc.ResolveOutcome(context.Background(), c.order.ID, domain.PaymentStatus(status), "upi")
	if !errors.Is(err, domain.ErrPaymentOutcomeConflict) {
		return fmt.Errorf("expected outcome conflict, got %v", err)
	}
	return nil
}

func (c *billingTestContext) theCartHolds(qty int, name string) error {
	snap, err := c.sessions.Get(context.Background(), c.snap.ID)
	if err != nil {
		return err
	}
	line, ok := snap.Line(c.catalog[name].ID)
	if !ok {
		return fmt.Errorf("%q is not in the cart", name)
	}
	if line.Quantity != qty {
		return fmt.Errorf("expected %d of %q, got %d", qty, name, line.Quantity)
	}
	return nil
}

func (c *billingTestContext) checkoutIsRejectedFor(field string) error {
	var verr *domain.ValidationError
	if !errors.As(c.err, &verr) {
		return fmt.Errorf("expected validation error, got %v", c.err)
	}
	if verr.Field != field {
		return fmt.Errorf("expected field %q, got %q", field, verr.Field)
	}
	return nil
}

func (c *billingTestContext) noOrderWasWritten() error {
	if n := c.ledger.calls(); n != 0 {
		return fmt.Errorf("expected no ledger calls, got %d", n)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &billingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the catalog has "([^"]*)" priced (\d+) with (\d+)% discount and (\d+) in stock$`, tc.theCatalogHas)
	ctx.Step(`^a billing session for customer "([^"]*)"$`, tc.aBillingSessionForCustomer)

	ctx.Step(`^the cashier adds (\d+) of "([^"]*)"$`, tc.theCashierAdds)
	ctx.Step(`^the cashier adds (\d+) of "([^"]*)" (\d+) times$`, tc.theCashierAddsTimes)
	ctx.Step(`^the cashier checks out$`, tc.theCashierChecksOut)
	ctx.Step(`^the payment is reported as "([^"]*)"$`, tc.thePaymentIsReportedAs)

	ctx.Step(`^the order is pending with total "([^"]*)" and discount "([^"]*)"$`, tc.theOrderIsPendingWithTotals)
	ctx.Step(`^a payment request for (\d+) paise is issued$`, tc.aPaymentRequestIsIssued)
	ctx.Step(`^the payment QR code decodes to the payment payload$`, tc.theQRCodeDecodesToThePayload)
	ctx.Step(`^the order is "([^"]*)"$`, tc.theOrderIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^reporting the payment as "([^"]*)" is rejected as already resolved$`, tc.reportingAgainIsRejected)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)"$`, tc.theCartHolds)
	ctx.Step(`^checkout is rejected for "([^"]*)"$`, tc.checkoutIsRejectedFor)
	ctx.Step(`^no order was written$`, tc.noOrderWasWritten)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/billing.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
