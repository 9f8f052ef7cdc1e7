package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fjod/furstore/internal/backend"
	"github.com/fjod/furstore/internal/cache"
	"github.com/fjod/furstore/internal/catalog"
	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/service"
)

const testSessionID = "6f1c2f0e-8d1a-4c55-9a43-2b1f4e0c9d11"

type mockSource struct {
	mu         sync.RWMutex
	products   map[int64]domain.Product
	categories []domain.Category
	lastQuery  domain.ProductQuery
	err        error
}

func (m *mockSource) Product(_ context.Context, id int64) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return domain.Product{}, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, backend.ErrNotFound
	}
	return p, nil
}

func (m *mockSource) Products(_ context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	if m.err != nil {
		return domain.ProductPage{}, m.err
	}
	page := domain.ProductPage{Page: q.Page, PageSize: q.PageSize}
	for _, p := range m.products {
		page.Data = append(page.Data, p)
	}
	page.Total = len(page.Data)
	return page, nil
}

func (m *mockSource) Categories(_ context.Context) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.categories, m.err
}

type mockOrders struct {
	mu        sync.RWMutex
	created   []domain.OrderRequest
	result    *domain.OrderResult
	orders    map[int64]domain.Order
	updateErr error
	lastQuery domain.OrderQuery
}

func (m *mockOrders) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, req)
	if m.result != nil {
		return *m.result, nil
	}
	return domain.OrderResult{Success: true, Message: "Order made successfully", OrderID: 42}, nil
}

func (m *mockOrders) GetOrder(_ context.Context, id int64) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, backend.ErrNotFound
	}
	return o, nil
}

func (m *mockOrders) ListCustomerOrders(_ context.Context, customerID int64, q domain.OrderQuery) (domain.OrderList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	var data []domain.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			data = append(data, o)
		}
	}
	return domain.OrderList{TotalCount: len(data), Page: q.Page, PageSize: q.PageSize, Data: data}, nil
}

func (m *mockOrders) ListOrders(_ context.Context, q domain.OrderQuery) (domain.OrderList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	return domain.OrderList{TotalCount: len(m.orders), Page: q.Page, PageSize: q.PageSize}, nil
}

func (m *mockOrders) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return "", m.updateErr
	}
	o := m.orders[id]
	o.Status = status
	m.orders[id] = o
	return "Order status updated", nil
}

func (m *mockSource) LastQuery() domain.ProductQuery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

func (m *mockOrders) LastQuery() domain.OrderQuery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

func (m *mockOrders) Created() []domain.OrderRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.OrderRequest(nil), m.created...)
}

func lamp() domain.Product {
	return domain.Product{
		ID:              7,
		Name:            "Floor lamp",
		SKU:             "LMP-7",
		Price:           decimal.NewFromInt(100),
		DiscountPercent: decimal.NewFromInt(10),
		Stock:           3,
	}
}

type testEnv struct {
	router http.Handler
	source *mockSource
	orders *mockOrders
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	source := &mockSource{
		products: map[int64]domain.Product{7: lamp()},
		categories: []domain.Category{
			{ID: 1, Name: "Living room", SubCategories: []domain.Category{{ID: 2, Name: "Sofas"}}},
		},
	}
	orders := &mockOrders{orders: map[int64]domain.Order{
		100: {ID: 100, CustomerID: 5, Status: domain.OrderStatusPending},
		101: {ID: 101, CustomerID: 6, Status: domain.OrderStatusPending},
		102: {ID: 102, CustomerID: 5, Status: domain.OrderStatusDelivering},
	}}

	log := zerolog.Nop()
	cat := catalog.NewService(source, cache.NewMemoryProductCache(100, time.Minute), log)
	sf := service.NewStorefront(service.Deps{
		Sessions:   service.NewSessionService(nil, cache.NewMemorySessionCache(100, time.Hour), log),
		Catalog:    cat,
		Orders:     orders,
		SubmitLock: cache.NewMemorySubmitLock(time.Minute),
		Log:        log,
	})

	timeout := 5 * time.Second
	router := NewRouter(RouterConfig{RequestTimeout: timeout, MaxRequestBodySize: 1 << 20}, Handlers{
		Cart:     NewCartHandler(sf, timeout),
		Checkout: NewCheckoutHandler(sf, timeout),
		Orders:   NewOrdersHandler(sf, timeout),
		Catalog:  NewCatalogHandler(cat, timeout),
	}, log)
	return &testEnv{router: router, source: source, orders: orders}
}

func sessionCookie() *http.Cookie {
	return &http.Cookie{Name: SessionCookie, Value: testSessionID}
}

func identityCookie(t *testing.T, name string, id Identity) *http.Cookie {
	t.Helper()
	raw, err := json.Marshal(id)
	require.NoError(t, err)
	return &http.Cookie{Name: name, Value: url.QueryEscape(string(raw))}
}

func customerCookie(t *testing.T) *http.Cookie {
	return identityCookie(t, CustomerCookie, Identity{ID: 5, FullName: "Ann Lee", Email: "ann@example.com"})
}

func adminCookie(t *testing.T) *http.Cookie {
	return identityCookie(t, AdminCookie, Identity{ID: 1, FullName: "Admin", Email: "admin@example.com"})
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
