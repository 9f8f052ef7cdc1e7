package cart

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/furstore/internal/domain"
)

func TestComputeTotals_Example(t *testing.T) {
	s := NewStore()
	s.AddItem(product(1, 100, 10, 5), 2)

	totals := s.ComputeTotals(domain.DeliveryStandard)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(200)), totals.Subtotal.String())
	assert.True(t, totals.Discount.Equal(decimal.NewFromInt(20)), totals.Discount.String())
	assert.True(t, totals.Shipping.Equal(decimal.NewFromInt(10)), totals.Shipping.String())
	assert.True(t, totals.GrandTotal.Equal(decimal.NewFromInt(190)), totals.GrandTotal.String())
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, domain.DeliveryExpress)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Discount.IsZero())
	assert.True(t, totals.GrandTotal.Equal(decimal.NewFromInt(20)))
}

func TestComputeTotals_FractionalDiscount(t *testing.T) {
	items := []domain.CartLineItem{{
		Product: domain.ProductSnapshot{
			ID:              1,
			Price:           decimal.RequireFromString("19.99"),
			DiscountPercent: decimal.RequireFromString("15"),
			Stock:           10,
		},
		Quantity: 3,
	}}

	totals := ComputeTotals(items, domain.DeliveryFree)

	assert.Equal(t, "59.97", totals.Subtotal.String())
	assert.Equal(t, "8.9955", totals.Discount.String())
	assert.Equal(t, "50.9745", totals.GrandTotal.String())
	assert.Equal(t, "50.97", totals.Formatted().GrandTotal)
	assert.Equal(t, "Free", totals.Formatted().Shipping)
}

func TestComputeTotals_IdempotentAndConsistent(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	methods := []domain.DeliveryMethod{domain.DeliveryFree, domain.DeliveryStandard, domain.DeliveryExpress}

	for round := 0; round < 300; round++ {
		s := NewStore()
		for i := 0; i < rng.IntN(6); i++ {
			p := product(int64(rng.IntN(8)+1), int64(rng.IntN(5000)), int64(rng.IntN(101)), rng.IntN(20))
			s.AddItem(p, rng.IntN(9)+1)
		}
		method := methods[rng.IntN(len(methods))]

		first := s.ComputeTotals(method)
		second := s.ComputeTotals(method)

		require.True(t, first.Subtotal.Equal(second.Subtotal))
		require.True(t, first.Discount.Equal(second.Discount))
		require.True(t, first.Shipping.Equal(second.Shipping))
		require.True(t, first.GrandTotal.Equal(second.GrandTotal))
		require.True(t, first.GrandTotal.Equal(first.Subtotal.Sub(first.Discount).Add(first.Shipping)))
	}
}

func TestOrderProducts(t *testing.T) {
	s := NewStore()
	s.AddItem(product(3, 10, 0, 5), 2)
	s.AddItem(product(1, 10, 0, 5), 1)

	assert.Equal(t, []domain.OrderProduct{
		{ProductID: 3, Quantity: 2},
		{ProductID: 1, Quantity: 1},
	}, OrderProducts(s.Items()))
}
