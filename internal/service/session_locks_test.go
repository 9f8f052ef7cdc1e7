package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/furstore/internal/cache"
	"github.com/fjod/furstore/internal/domain"
)

func TestSessionLocks_SerialisesOneSession(t *testing.T) {
	var locks sessionLocks
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("sess-1")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size())
}

func TestSessionLocks_IndependentSessions(t *testing.T) {
	var locks sessionLocks
	unlock := locks.lock("sess-1")
	defer unlock()

	acquired := make(chan struct{})
	go func() {
		release := locks.lock("sess-2")
		release()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("sess-2 waited for sess-1")
	}
	assert.Equal(t, 1, locks.size())
}

func TestCompleteOrder_DoesNotBlockOtherSessions(t *testing.T) {
	orders := &mockOrders{entered: make(chan struct{}, 1), block: make(chan struct{})}
	sf := newTestStorefront(orders, nil, nil)
	ctx := context.Background()
	toConfirmation(t, sf)

	done := make(chan error, 1)
	go func() {
		_, err := sf.CompleteOrder(ctx, shopper)
		done <- err
	}()
	select {
	case <-orders.entered:
	case <-time.After(time.Second):
		t.Fatal("order was never submitted")
	}

	browsed := make(chan error, 1)
	go func() {
		for i := 0; i < 100; i++ {
			if _, err := sf.Cart(ctx, Visitor{SessionID: fmt.Sprintf("other-%d", i)}); err != nil {
				browsed <- err
				return
			}
		}
		browsed <- nil
	}()
	select {
	case err := <-browsed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("other sessions waited for the order submission")
	}

	close(orders.block)
	require.NoError(t, <-done)
	assert.Equal(t, 0, sf.locks.size())
}

func TestClearCart_StaysClearedWithSlowCache(t *testing.T) {
	repo := newMockSessionRepo()
	sessionCache := &slowSessionCache{MemorySessionCache: cache.NewMemorySessionCache(10, time.Hour), delay: 20 * time.Millisecond}
	sf := NewStorefront(Deps{
		Sessions: NewSessionService(repo, sessionCache, zerolog.Nop()),
		Catalog:  &mockCatalog{products: map[int64]domain.ProductSnapshot{7: chair()}},
		Orders:   &mockOrders{},
		Log:      zerolog.Nop(),
	})
	ctx := context.Background()

	stored := domain.NewSession(shopper.SessionID, time.Now())
	stored.Items = append(stored.Items, domain.CartLineItem{Product: chair(), Quantity: 1})
	require.NoError(t, repo.UpsertSession(ctx, stored))

	view, err := sf.ClearCart(ctx, shopper)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	time.Sleep(50 * time.Millisecond)
	view, err = sf.Cart(ctx, shopper)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	saved, err := repo.GetSession(ctx, shopper.SessionID)
	require.NoError(t, err)
	assert.Empty(t, saved.Items)
}
