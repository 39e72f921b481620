// Package payment turns a pending order into something a customer can pay:
// a UPI deep link, its QR image and a gateway reference.
package payment

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrAmountTooLarge = errors.New("amount does not fit in minor units")
	ErrBadPayload     = errors.New("malformed payment payload")
)

// Merchant identifies the payee written into every payload.
type Merchant struct {
	VPA    string
	Name   string
	Scheme string
}

func (m Merchant) scheme() string {
	if m.Scheme == "" {
		return "upi"
	}
	return m.Scheme
}

// Payload is the decoded form of a payment URI.
type Payload struct {
	Scheme   string
	VPA      string
	Name     string
	Amount   decimal.Decimal
	Currency string
	Note     string
}

func Note(orderID int64) string {
	return "Payment for Order " + strconv.FormatInt(orderID, 10)
}

// BuildPayload renders the payment URI for an order. Field order is fixed so
// the same order always yields the same string.
func BuildPayload(m Merchant, orderID int64, amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", ErrNegativeAmount
	}

	var b strings.Builder
	b.WriteString(m.scheme())
	b.WriteString("://pay?pa=")
	b.WriteString(escape(m.VPA))
	b.WriteString("&pn=")
	b.WriteString(escape(m.Name))
	b.WriteString("&am=")
	b.WriteString(amount.StringFixed(2))
	b.WriteString("&cu=")
	b.WriteString(domain.CurrencyINR)
	b.WriteString("&tn=")
	b.WriteString(escape(Note(orderID)))
	return b.String(), nil
}

// ParsePayload is the inverse of BuildPayload.
func ParsePayload(raw string) (Payload, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if u.Host != "pay" {
		return Payload{}, fmt.Errorf("%w: unexpected target %q", ErrBadPayload, u.Host)
	}

	q := u.Query()
	amount, err := decimal.NewFromString(q.Get("am"))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: amount: %v", ErrBadPayload, err)
	}
	return Payload{
		Scheme:   u.Scheme,
		VPA:      q.Get("pa"),
		Name:     q.Get("pn"),
		Amount:   amount,
		Currency: q.Get("cu"),
		Note:     q.Get("tn"),
	}, nil
}

// MinorUnits converts a rupee amount to paise, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	minor := amount.Shift(2).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrAmountTooLarge
	}
	return minor.IntPart(), nil
}

// escape is query escaping that keeps '@' readable and encodes spaces as %20,
// which UPI apps expect.
func escape(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	return strings.ReplaceAll(e, "%40", "@")
}
