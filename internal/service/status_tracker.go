package service

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/fjod/furstore/internal/domain"
)

type UpdateState string

const (
	UpdatePending   UpdateState = "pending"
	UpdateConfirmed UpdateState = "confirmed"
	UpdateFailed    UpdateState = "failed"
)

// StatusUpdate is the tracked record of one admin status change. Displayed
// is the status to show: the requested one unless the update failed.
type StatusUpdate struct {
	OrderID   int64              `json:"orderId"`
	Previous  domain.OrderStatus `json:"previous"`
	Requested domain.OrderStatus `json:"requested"`
	Displayed domain.OrderStatus `json:"displayed"`
	State     UpdateState        `json:"state"`
	Message   string             `json:"message,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

const (
	defaultTrackerSize = 10000
	defaultTrackerTTL  = 24 * time.Hour
)

// StatusTracker keeps the latest status update per order. Entries are
// evicted least recently used first and expire after the tracker's TTL.
type StatusTracker struct {
	mu      sync.Mutex
	updates *expirable.LRU[int64, StatusUpdate]
	now     func() time.Time
}

// NewStatusTracker holds at most size updates for ttl each. Non-positive
// arguments fall back to the defaults.
func NewStatusTracker(size int, ttl time.Duration) *StatusTracker {
	if size <= 0 {
		size = defaultTrackerSize
	}
	if ttl <= 0 {
		ttl = defaultTrackerTTL
	}
	return &StatusTracker{
		updates: expirable.NewLRU[int64, StatusUpdate](size, nil, ttl),
		now:     time.Now,
	}
}

// Begin records a pending change and reports false when one is already pending for the order.
func (t *StatusTracker) Begin(orderID int64, previous, requested domain.OrderStatus) (StatusUpdate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.updates.Get(orderID); ok && cur.State == UpdatePending {
		return cur, false
	}
	u := StatusUpdate{
		OrderID:   orderID,
		Previous:  previous,
		Requested: requested,
		Displayed: requested,
		State:     UpdatePending,
		UpdatedAt: t.now().UTC(),
	}
	t.updates.Add(orderID, u)
	return u, true
}

func (t *StatusTracker) Confirm(orderID int64, message string) StatusUpdate {
	return t.settle(orderID, UpdateConfirmed, message)
}

func (t *StatusTracker) Fail(orderID int64, message string) StatusUpdate {
	return t.settle(orderID, UpdateFailed, message)
}

func (t *StatusTracker) settle(orderID int64, state UpdateState, message string) StatusUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, _ := t.updates.Get(orderID)
	u.OrderID = orderID
	u.State = state
	u.Message = message
	u.Displayed = u.Requested
	if state == UpdateFailed {
		u.Displayed = u.Previous
	}
	u.UpdatedAt = t.now().UTC()
	t.updates.Add(orderID, u)
	return u
}

func (t *StatusTracker) Get(orderID int64) (StatusUpdate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updates.Get(orderID)
}

// Len reports how many updates are held.
func (t *StatusTracker) Len() int {
	return t.updates.Len()
}
