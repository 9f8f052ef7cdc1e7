package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/service"
)

type CheckoutHandler struct {
	storefront *service.Storefront
	timeout    time.Duration
}

func NewCheckoutHandler(sf *service.Storefront, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{storefront: sf, timeout: timeout}
}

type CheckoutOptionsDTO struct {
	Delivery []domain.DeliveryOption `json:"delivery"`
	Payment  []domain.PaymentOption  `json:"payment"`
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.storefront.Checkout)
}

// POST /api/v1/checkout/proceed
func (h *CheckoutHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.storefront.Proceed)
}

// POST /api/v1/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.storefront.Back)
}

// POST /api/v1/checkout/complete
func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.storefront.CompleteOrder)
}

// POST /api/v1/checkout/billing
func (h *CheckoutHandler) Billing(w http.ResponseWriter, r *http.Request) {
	var addr domain.BillingAddress
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.run(w, r, func(ctx context.Context, v service.Visitor) (service.CheckoutView, error) {
		return h.storefront.SubmitBilling(ctx, v, addr)
	})
}

// GET /api/v1/checkout/options
func (h *CheckoutHandler) Options(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, CheckoutOptionsDTO{
		Delivery: domain.DeliveryOptions,
		Payment:  domain.PaymentOptions,
	})
}

func (h *CheckoutHandler) run(w http.ResponseWriter, r *http.Request, op func(context.Context, service.Visitor) (service.CheckoutView, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := op(ctx, visitorFromContext(r.Context()))
	if err != nil {
		if view.Steps == nil {
			handleError(w, r, err, nil)
			return
		}
		handleError(w, r, err, view)
		return
	}
	respondJSON(w, r, http.StatusOK, view)
}
