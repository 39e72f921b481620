package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/logger"
	"github.com/fjod/go_billing/internal/session"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts billing errors to HTTP status codes
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	httpStatus, code, message := describeError(ctx, err)
	respondError(w, httpStatus, code, message)
}

// describeError picks the status, code and client message for err. Server-side
// failures are logged here.
func describeError(ctx context.Context, err error) (int, string, string) {
	httpStatus, code := classifyError(err)
	if httpStatus >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error("request failed", zap.String("code", code), zap.Error(err))
		if code == "internal_error" {
			return httpStatus, code, "internal server error"
		}
	}
	return httpStatus, code, err.Error()
}

func classifyError(err error) (httpStatus int, code string) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		httpStatus = http.StatusBadRequest
		code = "invalid_" + validation.Field
	case errors.Is(err, domain.ErrValidation):
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case errors.Is(err, domain.ErrOutOfStock):
		httpStatus = http.StatusConflict
		code = "out_of_stock"
	case errors.Is(err, domain.ErrPaymentOutcomeConflict):
		httpStatus = http.StatusConflict
		code = "payment_outcome_conflict"
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, domain.ErrPersistence):
		httpStatus = http.StatusBadGateway
		code = "persistence_failure"
	case errors.Is(err, domain.ErrEncoding):
		httpStatus = http.StatusInternalServerError
		code = "encoding_failure"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	return httpStatus, code
}
