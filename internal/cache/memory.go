package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/fjod/furstore/internal/domain"
)

// MemorySessionCache is an in-process session cache for single node runs.
// Stored sessions are cloned on the way in and out.
type MemorySessionCache struct {
	lru *expirable.LRU[string, *domain.Session]
}

func NewMemorySessionCache(size int, ttl time.Duration) *MemorySessionCache {
	if size <= 0 {
		size = 10_000
	}
	return &MemorySessionCache{lru: expirable.NewLRU[string, *domain.Session](size, nil, ttl)}
}

func (m *MemorySessionCache) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	s, ok := m.lru.Get(sessionID)
	if !ok {
		return nil, ErrCacheMiss
	}
	return s.Clone(), nil
}

func (m *MemorySessionCache) Set(_ context.Context, s *domain.Session) error {
	m.lru.Add(s.ID, s.Clone())
	return nil
}

func (m *MemorySessionCache) Delete(_ context.Context, sessionID string) error {
	m.lru.Remove(sessionID)
	return nil
}

func (m *MemorySessionCache) Len() int {
	return m.lru.Len()
}

type MemoryProductCache struct {
	lru *expirable.LRU[int64, domain.ProductSnapshot]
}

func NewMemoryProductCache(size int, ttl time.Duration) *MemoryProductCache {
	if size <= 0 {
		size = 1_000
	}
	return &MemoryProductCache{lru: expirable.NewLRU[int64, domain.ProductSnapshot](size, nil, ttl)}
}

func (m *MemoryProductCache) Get(_ context.Context, productID int64) (domain.ProductSnapshot, error) {
	p, ok := m.lru.Get(productID)
	if !ok {
		return domain.ProductSnapshot{}, ErrCacheMiss
	}
	return p, nil
}

func (m *MemoryProductCache) Set(_ context.Context, p domain.ProductSnapshot) error {
	m.lru.Add(p.ID, p)
	return nil
}
