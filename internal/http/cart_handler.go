package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/furstore/internal/service"
)

type CartHandler struct {
	storefront *service.Storefront
	timeout    time.Duration
}

func NewCartHandler(sf *service.Storefront, timeout time.Duration) *CartHandler {
	return &CartHandler{storefront: sf, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type RemoveItemsRequestDTO struct {
	ProductIDs []int64 `json:"productIds"`
}

type AddItemResponseDTO struct {
	service.CartView
	Added int `json:"added"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.storefront.Cart(ctx, visitorFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, view)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "productId must be positive")
		return
	}

	view, added, err := h.storefront.AddItem(ctx, visitorFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		var details any
		if view.Items != nil {
			details = view
		}
		handleError(w, r, err, details)
		return
	}
	respondJSON(w, r, http.StatusCreated, AddItemResponseDTO{CartView: view, Added: added})
}

// PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	view, err := h.storefront.SetQuantity(ctx, visitorFromContext(r.Context()), productID, req.Quantity)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, view)
}

// DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	view, err := h.storefront.RemoveItems(ctx, visitorFromContext(r.Context()), productID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, view)
}

// DELETE /api/v1/cart/items
func (h *CartHandler) RemoveItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RemoveItemsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	view, err := h.storefront.RemoveItems(ctx, visitorFromContext(r.Context()), req.ProductIDs...)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, view)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.storefront.ClearCart(ctx, visitorFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, view)
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return idParam(w, r, "productId", "invalid_product_id")
}

func idParam(w http.ResponseWriter, r *http.Request, name, code string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, code, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
