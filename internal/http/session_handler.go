package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/pricing"
	"github.com/go-chi/chi/v5"
)

type SessionService interface {
	Open(ctx context.Context) (cart.Snapshot, error)
	Get(ctx context.Context, id string) (cart.Snapshot, error)
	AddLine(ctx context.Context, id string, product domain.Product, qty int) (cart.Snapshot, error)
	SetQuantity(ctx context.Context, id string, productID int64, qty int) (cart.Snapshot, error)
	RemoveLine(ctx context.Context, id string, productID int64) (cart.Snapshot, error)
	SetCustomer(ctx context.Context, id, name, phone string) (cart.Snapshot, error)
	Clear(ctx context.Context, id string) (cart.Snapshot, error)
	Close(ctx context.Context, id string) error
}

type ProductGetter interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type SessionHandler struct {
	sessions SessionService
	products ProductGetter
	timeout  time.Duration
}

func NewSessionHandler(sessions SessionService, products ProductGetter, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		products: products,
		timeout:  timeout,
	}
}

type AddLineRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type SetQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CustomerRequestDTO struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type SessionResponseDTO struct {
	cart.Snapshot
	ItemCount  int                  `json:"item_count"`
	LineTotals []pricing.LineTotals `json:"line_totals"`
	Totals     pricing.Summary      `json:"totals"`
}

func toSessionResponse(snap cart.Snapshot) SessionResponseDTO {
	if snap.Lines == nil {
		snap.Lines = make([]domain.CartLine, 0)
	}
	totals := pricing.PriceCart(snap.Lines)
	return SessionResponseDTO{
		Snapshot:   snap,
		ItemCount:  snap.ItemCount(),
		LineTotals: totals.Lines,
		Totals:     totals.Summary(),
	}
}

// POST /api/sessions
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.sessions.Open(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionResponse(snap))
}

// GET /api/sessions/{session_id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.sessions.Get(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(snap))
}

// POST /api/sessions/{session_id}/lines
func (h *SessionHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := h.products.Get(ctx, req.ProductID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	snap, err := h.sessions.AddLine(ctx, chi.URLParam(r, "session_id"), *product, req.Quantity)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(snap))
}

// PUT /api/sessions/{session_id}/lines/{product_id}
func (h *SessionHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	var req SetQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	snap, err := h.sessions.SetQuantity(ctx, chi.URLParam(r, "session_id"), productID, req.Quantity)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(snap))
}

// DELETE /api/sessions/{session_id}/lines/{product_id}
func (h *SessionHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	snap, err := h.sessions.RemoveLine(ctx, chi.URLParam(r, "session_id"), productID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(snap))
}

// PUT /api/sessions/{session_id}/customer
func (h *SessionHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CustomerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	snap, err := h.sessions.SetCustomer(ctx, chi.URLParam(r, "session_id"), req.Name, req.Phone)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(snap))
}

// POST /api/sessions/{session_id}/clear
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.sessions.Clear(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(snap))
}

// DELETE /api/sessions/{session_id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.sessions.Close(ctx, chi.URLParam(r, "session_id")); err != nil {
		handleError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
