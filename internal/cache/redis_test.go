package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/furstore/internal/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func testSession() *domain.Session {
	s := domain.NewSession("sess-1", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	s.CustomerID = 7
	s.Items = append(s.Items, domain.CartLineItem{
		Product: domain.ProductSnapshot{
			ID:              1,
			Name:            "Armchair",
			Price:           decimal.RequireFromString("249.90"),
			DiscountPercent: decimal.NewFromInt(10),
			Stock:           4,
		},
		Quantity: 2,
	})
	s.Checkout = domain.CheckoutState{
		Step:    domain.StepConfirmation,
		Billing: &domain.BillingAddress{CustomerID: 7, Phone: "0912345678", Address: "12 Oak Street", DeliveryMethod: domain.DeliveryExpress, PaymentMethod: domain.PaymentCard},
	}
	return s
}

func TestRedisSessionCache_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisSessionCache(client, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testSession()))
	assert.True(t, mr.Exists("session:sess-1"))

	ttl := mr.TTL("session:sess-1")
	assert.GreaterOrEqual(t, ttl, 30*time.Minute)
	assert.Less(t, ttl, 35*time.Minute)

	got, err := c.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.CustomerID)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Product.Price.Equal(decimal.RequireFromString("249.9")))
	assert.Equal(t, domain.StepConfirmation, got.Checkout.Step)
	require.NotNil(t, got.Checkout.Billing)
	assert.Equal(t, domain.DeliveryExpress, got.Checkout.Billing.DeliveryMethod)
}

func TestRedisSessionCache_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisSessionCache(client, 0)

	got, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisSessionCache_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisSessionCache(client, 0)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := c.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "unmarshal session failed")
}

func TestRedisSessionCache_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisSessionCache(client, 0)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, testSession()))

	require.NoError(t, c.Delete(ctx, "sess-1"))

	assert.False(t, mr.Exists("session:sess-1"))
	require.NoError(t, c.Delete(ctx, "sess-1"))
}

func TestRedisSessionCache_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisSessionCache(client, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, testSession()))

	mr.FastForward(10 * time.Minute)

	_, err := c.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisSessionCache_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisSessionCache(client, 0)
	mr.Close()

	_, err := c.Get(context.Background(), "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisProductCache(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisProductCache(client, 5*time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, 3)
	require.ErrorIs(t, err, ErrCacheMiss)

	p := domain.ProductSnapshot{ID: 3, Name: "Sofa", Price: decimal.RequireFromString("499.99"), Stock: 2}
	require.NoError(t, c.Set(ctx, p))
	assert.Equal(t, 5*time.Minute, mr.TTL("product:3"))

	got, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Sofa", got.Name)
	assert.True(t, got.Price.Equal(p.Price))
}
