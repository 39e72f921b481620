package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/pricing"
	"github.com/fjod/go_billing/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	defaultAwait = 30 * time.Second
	maxAwait     = 2 * time.Minute
)

type Billing interface {
	CheckoutAndRequestPayment(ctx context.Context, snap cart.Snapshot) (*domain.Order, *domain.PaymentRequest, error)
	CreatePaymentRequest(ctx context.Context, orderID int64) (*domain.PaymentRequest, error)
	PaymentRequest(orderID int64) (*domain.PaymentRequest, bool)
	ResolveOutcome(ctx context.Context, orderID int64, status domain.PaymentStatus, method string) (*domain.Order, error)
	AwaitOutcome(ctx context.Context, orderID int64, timeout time.Duration) (*domain.Order, error)
}

type SessionReader interface {
	Get(ctx context.Context, id string) (cart.Snapshot, error)
}

type CheckoutHandler struct {
	billing  Billing
	sessions SessionReader
	timeout  time.Duration
}

func NewCheckoutHandler(billing Billing, sessions SessionReader, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		billing:  billing,
		sessions: sessions,
		timeout:  timeout,
	}
}

type PaymentRequestDTO struct {
	OrderID     int64     `json:"order_id"`
	Reference   string    `json:"request_reference"`
	Amount      string    `json:"amount"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Payload     string    `json:"payload"`
	QRCode      string    `json:"qr_code"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPaymentRequestDTO(req *domain.PaymentRequest) *PaymentRequestDTO {
	if req == nil {
		return nil
	}
	return &PaymentRequestDTO{
		OrderID:     req.OrderID,
		Reference:   req.Reference,
		Amount:      pricing.Format(req.Amount),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Payload:     req.Payload,
		QRCode:      req.QRDataURL(),
		CreatedAt:   req.CreatedAt,
	}
}

type CheckoutResponseDTO struct {
	Order          *domain.Order      `json:"order"`
	PaymentRequest *PaymentRequestDTO `json:"payment_request"`
}

// CheckoutFailedDTO is returned when the order was saved but its payment
// request could not be issued.
type CheckoutFailedDTO struct {
	ErrorResponse
	Order *domain.Order `json:"order"`
}

type OutcomeRequestDTO struct {
	Status string `json:"status"`
	Method string `json:"method"`
}

// POST /api/sessions/{session_id}/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.sessions.Get(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	order, req, err := h.billing.CheckoutAndRequestPayment(ctx, snap)
	if err != nil && order == nil {
		handleError(ctx, w, err)
		return
	}
	if err != nil {
		// the order exists; the client retries via the payment-request endpoint
		status, code, message := describeError(ctx, err)
		respondJSON(w, status, CheckoutFailedDTO{
			ErrorResponse: ErrorResponse{Error: message, Code: code, Details: "order saved, retry the payment request"},
			Order:         order,
		})
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Order:          order,
		PaymentRequest: toPaymentRequestDTO(req),
	})
}

// POST /api/orders/{order_id}/payment-request
func (h *CheckoutHandler) CreatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	req, err := h.billing.CreatePaymentRequest(ctx, orderID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPaymentRequestDTO(req))
}

// GET /api/orders/{order_id}/payment-request
func (h *CheckoutHandler) GetPaymentRequest(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	req, found := h.billing.PaymentRequest(orderID)
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "no pending payment request for this order")
		return
	}
	respondJSON(w, http.StatusOK, toPaymentRequestDTO(req))
}

// POST /api/orders/{order_id}/outcome
func (h *CheckoutHandler) ResolveOutcome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	var req OutcomeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	status, err := domain.ParsePaymentStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	order, err := h.billing.ResolveOutcome(ctx, orderID, status, req.Method)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GET /api/orders/{order_id}/await?timeout=30s
func (h *CheckoutHandler) AwaitOutcome(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	timeout := defaultAwait
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_timeout", "timeout must be a positive duration")
			return
		}
		timeout = min(d, maxAwait)
	}

	ctx := r.Context()
	order, err := h.billing.AwaitOutcome(ctx, orderID, timeout)
	switch {
	case errors.Is(err, service.ErrOutcomeTimeout):
		respondJSON(w, http.StatusAccepted, order)
	case err != nil:
		handleError(ctx, w, err)
	default:
		respondJSON(w, http.StatusOK, order)
	}
}
