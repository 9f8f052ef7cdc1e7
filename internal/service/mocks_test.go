package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fjod/furstore/internal/backend"
	"github.com/fjod/furstore/internal/cache"
	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/repository"
)

type mockCatalog struct {
	mu       sync.RWMutex
	products map[int64]domain.ProductSnapshot
}

func (m *mockCatalog) Product(_ context.Context, id int64) (domain.ProductSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return domain.ProductSnapshot{}, backend.ErrNotFound
	}
	return p, nil
}

type mockOrders struct {
	mu          sync.RWMutex
	created     []domain.OrderRequest
	results     []domain.OrderResult // consumed in order; the last one repeats
	createErr   error
	orders      map[int64]domain.Order
	updateErr   error
	statusCalls []domain.OrderStatus
	lastQuery   domain.OrderQuery
	// When set, CreateOrder signals entered and waits for block to close.
	entered chan struct{}
	block   chan struct{}
}

func (m *mockOrders) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if m.block != nil {
		m.entered <- struct{}{}
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, req)
	if m.createErr != nil {
		return domain.OrderResult{}, m.createErr
	}
	if len(m.results) == 0 {
		return domain.OrderResult{Success: true, Message: "Order made successfully", OrderID: 42}, nil
	}
	res := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return res, nil
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
	m.statusCalls = append(m.statusCalls, status)
	if m.updateErr != nil {
		return "", m.updateErr
	}
	o := m.orders[id]
	o.Status = status
	m.orders[id] = o
	return "Order status updated", nil
}

func (m *mockOrders) Created() []domain.OrderRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.OrderRequest(nil), m.created...)
}

type mockSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	getErr   error
	upserts  int
	gets     int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepo) GetSession(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mockSessionRepo) UpsertSession(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *mockSessionRepo) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) Gets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets
}

var errBackendDown = errors.New("connection refused")

func chair() domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:              7,
		Name:            "Oak chair",
		Price:           decimal.NewFromInt(100),
		DiscountPercent: decimal.NewFromInt(10),
		Stock:           3,
	}
}

func validBilling() domain.BillingAddress {
	return domain.BillingAddress{
		Phone:          "0123456789",
		Address:        "1 Main St",
		DeliveryMethod: domain.DeliveryStandard,
		PaymentMethod:  domain.PaymentCard,
	}
}

func newTestStorefront(orders *mockOrders, ledger Ledger, lock cache.SubmitLock) *Storefront {
	sessions := NewSessionService(nil, cache.NewMemorySessionCache(100, time.Hour), zerolog.Nop())
	return NewStorefront(Deps{
		Sessions:   sessions,
		Catalog:    &mockCatalog{products: map[int64]domain.ProductSnapshot{7: chair()}},
		Orders:     orders,
		Ledger:     ledger,
		SubmitLock: lock,
		Log:        zerolog.Nop(),
	})
}
