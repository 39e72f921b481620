package domain

import (
	"encoding/base64"
	"time"

	"github.com/shopspring/decimal"
)

const CurrencyINR = "INR"

// PaymentRequest is the payable instrument shown to the customer for one order.
// It lives only until the order's payment outcome is resolved.
type PaymentRequest struct {
	OrderID     int64           `json:"order_id"`
	Reference   string          `json:"request_reference"`
	Amount      decimal.Decimal `json:"amount"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	Payload     string          `json:"payload"`
	QRCode      []byte          `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
}

// QRDataURL renders the QR image as an embeddable data URL.
func (p PaymentRequest) QRDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(p.QRCode)
}
