package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/service"
)

type OrdersHandler struct {
	storefront *service.Storefront
	timeout    time.Duration
}

func NewOrdersHandler(sf *service.Storefront, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{storefront: sf, timeout: timeout}
}

type UpdateStatusRequestDTO struct {
	Status domain.OrderStatus `json:"status"`
}

// GET /api/v1/me/orders
func (h *OrdersHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, ok := orderQueryFromRequest(w, r)
	if !ok {
		return
	}
	customer, _ := customerFromContext(r.Context())
	list, err := h.storefront.CustomerOrders(ctx, customer.ID, q)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, list)
}

// GET /api/v1/me/orders/{orderId}
func (h *OrdersHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := idParam(w, r, "orderId", "invalid_order_id")
	if !ok {
		return
	}
	customer, _ := customerFromContext(r.Context())
	order, err := h.storefront.CustomerOrder(ctx, customer.ID, orderID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// POST /api/v1/me/orders/{orderId}/cancel
func (h *OrdersHandler) CancelMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := idParam(w, r, "orderId", "invalid_order_id")
	if !ok {
		return
	}
	customer, _ := customerFromContext(r.Context())
	order, err := h.storefront.CancelOrder(ctx, customer.ID, orderID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// GET /api/v1/admin/orders
func (h *OrdersHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, ok := orderQueryFromRequest(w, r)
	if !ok {
		return
	}
	list, err := h.storefront.AdminOrders(ctx, q)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, list)
}

// PATCH /api/v1/admin/orders/{orderId}
func (h *OrdersHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := idParam(w, r, "orderId", "invalid_order_id")
	if !ok {
		return
	}
	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	update, err := h.storefront.UpdateOrderStatus(ctx, orderID, req.Status)
	if err != nil {
		var details any
		if update.OrderID != 0 {
			details = update
		}
		handleError(w, r, err, details)
		return
	}
	respondJSON(w, r, http.StatusOK, update)
}

// GET /api/v1/admin/orders/{orderId}/status
func (h *OrdersHandler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idParam(w, r, "orderId", "invalid_order_id")
	if !ok {
		return
	}
	update, found := h.storefront.StatusUpdate(orderID)
	if !found {
		respondError(w, r, http.StatusNotFound, "not_found", "no status update recorded for this order")
		return
	}
	respondJSON(w, r, http.StatusOK, update)
}

func orderQueryFromRequest(w http.ResponseWriter, r *http.Request) (domain.OrderQuery, bool) {
	v := r.URL.Query()
	q := domain.OrderQuery{
		Status:    domain.OrderStatus(v.Get("status")),
		SortField: v.Get("sortField"),
		SortBy:    v.Get("sortBy"),
		From:      v.Get("from"),
		To:        v.Get("to"),
	}
	var ok bool
	if q.Page, ok = intQuery(w, r, "page"); !ok {
		return q, false
	}
	if q.PageSize, ok = intQuery(w, r, "pageSize"); !ok {
		return q, false
	}
	return q, true
}

func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", name+" must be an integer")
		return 0, false
	}
	return n, true
}
