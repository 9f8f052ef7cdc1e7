package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/furstore/internal/domain"
)

func TestMemorySessionCache(t *testing.T) {
	c := NewMemorySessionCache(2, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, "sess-1")
	require.ErrorIs(t, err, ErrCacheMiss)

	s := testSession()
	require.NoError(t, c.Set(ctx, s))
	s.Items[0].Quantity = 99

	got, err := c.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)

	got.Items[0].Quantity = 50
	again, _ := c.Get(ctx, "sess-1")
	assert.Equal(t, 2, again.Items[0].Quantity)

	require.NoError(t, c.Delete(ctx, "sess-1"))
	_, err = c.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemorySessionCache_EvictsOldest(t *testing.T) {
	c := NewMemorySessionCache(2, time.Minute)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, domain.NewSession(id, time.Now())))
	}

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryProductCache(t *testing.T) {
	c := NewMemoryProductCache(0, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, domain.ProductSnapshot{ID: 4, Name: "Lamp"}))
	got, err := c.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)

	_, err = c.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
