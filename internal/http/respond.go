package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/furstore/internal/backend"
	"github.com/fjod/furstore/internal/checkout"
	"github.com/fjod/furstore/internal/logger"
	"github.com/fjod/furstore/internal/service"
	"github.com/fjod/furstore/internal/validation"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message, Code: code})
}

// handleError maps service and backend errors to HTTP answers. details, when
// set, is sent along so the client can redraw (e.g. the checkout view).
func handleError(w http.ResponseWriter, r *http.Request, err error, details any) {
	status, code := errorStatus(err)
	resp := ErrorResponse{Error: err.Error(), Code: code, Details: details}

	var res validation.Result
	if errors.As(err, &res) {
		resp.Error = "validation failed"
		resp.Details = res.Errors
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		resp.Error = apiErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error().Err(err).Msg("request failed")
		if status == http.StatusInternalServerError {
			resp.Error = "internal server error"
		}
	}
	respondJSON(w, r, status, resp)
}

func errorStatus(err error) (int, string) {
	var res validation.Result
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &res), errors.Is(err, checkout.ErrInvalidBilling):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, service.ErrCustomerRequired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict, "empty_cart"
	case errors.Is(err, checkout.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		return http.StatusConflict, "submission_in_flight"
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusConflict, "out_of_stock"
	case errors.Is(err, service.ErrNotCancellable):
		return http.StatusConflict, "not_cancellable"
	case errors.Is(err, service.ErrIllegalStatusChange):
		return http.StatusConflict, "illegal_status_change"
	case errors.Is(err, service.ErrStatusUpdatePending):
		return http.StatusConflict, "status_update_pending"
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "backend_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
