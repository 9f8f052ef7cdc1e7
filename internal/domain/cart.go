package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CartLineItem is one product-quantity pair held in a cart.
type CartLineItem struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

// LineTotal is price × quantity, before discount.
func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineDiscount is price × discountPercent/100 × quantity.
func (i CartLineItem) LineDiscount() decimal.Decimal {
	return i.Product.Price.
		Mul(i.Product.DiscountPercent).
		Div(hundred).
		Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartTotals is derived from the current lines and is never stored.
type CartTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// Formatted renders the totals for display, e.g. "1,234.50".
func (t CartTotals) Formatted() FormattedTotals {
	return FormattedTotals{
		Subtotal:   FormatMoney(t.Subtotal),
		Discount:   FormatMoney(t.Discount),
		Shipping:   FormatShipping(t.Shipping),
		GrandTotal: FormatMoney(t.GrandTotal),
	}
}

type FormattedTotals struct {
	Subtotal   string `json:"subtotal"`
	Discount   string `json:"discount"`
	Shipping   string `json:"shipping"`
	GrandTotal string `json:"grandTotal"`
}
