package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/furstore/internal/catalog"
	"github.com/fjod/furstore/internal/domain"
)

type CatalogHandler struct {
	catalog *catalog.Service
	timeout time.Duration
}

func NewCatalogHandler(c *catalog.Service, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: c, timeout: timeout}
}

// GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	v := r.URL.Query()
	q := domain.ProductQuery{
		Name:       v.Get("name"),
		Category:   v.Get("category"),
		SortField:  v.Get("sortField"),
		SortBy:     v.Get("sortBy"),
		FromAmount: v.Get("fromAmount"),
		ToAmount:   v.Get("toAmount"),
	}
	var ok bool
	if q.Page, ok = intQuery(w, r, "page"); !ok {
		return
	}
	if q.PageSize, ok = intQuery(w, r, "pageSize"); !ok {
		return
	}

	page, err := h.catalog.Products(ctx, q)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

// GET /api/v1/products/{productId}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	p, err := h.catalog.ProductDetail(ctx, productID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

// GET /api/v1/categories?flat=true
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tree, err := h.catalog.Categories(ctx)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	if r.URL.Query().Get("flat") == "true" {
		respondJSON(w, r, http.StatusOK, h.catalog.Flatten(tree))
		return
	}
	respondJSON(w, r, http.StatusOK, tree)
}
