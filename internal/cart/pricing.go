package cart

import (
	"github.com/shopspring/decimal"

	"github.com/fjod/furstore/internal/domain"
)

// ComputeTotals derives the cart totals from items. It has no side effects.
func ComputeTotals(items []domain.CartLineItem, method domain.DeliveryMethod) domain.CartTotals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
		discount = discount.Add(it.LineDiscount())
	}
	shipping := method.ShippingCost()
	return domain.CartTotals{
		Subtotal:   subtotal,
		Discount:   discount,
		Shipping:   shipping,
		GrandTotal: subtotal.Sub(discount).Add(shipping),
	}
}

// OrderProducts lists the {productId, quantity} pairs of an order payload.
func OrderProducts(items []domain.CartLineItem) []domain.OrderProduct {
	out := make([]domain.OrderProduct, 0, len(items))
	for _, it := range items {
		out = append(out, domain.OrderProduct{ProductID: it.Product.ID, Quantity: it.Quantity})
	}
	return out
}
