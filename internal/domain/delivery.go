package domain

import "github.com/shopspring/decimal"

type DeliveryMethod string

const (
	DeliveryFree     DeliveryMethod = "free"
	DeliveryStandard DeliveryMethod = "standard"
	DeliveryExpress  DeliveryMethod = "express"
)

type DeliveryOption struct {
	Method      DeliveryMethod  `json:"value"`
	Name        string          `json:"name"`
	Cost        decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// DeliveryOptions is the fixed shipping table, in display order.
var DeliveryOptions = []DeliveryOption{
	{Method: DeliveryFree, Name: "Free", Cost: decimal.Zero, Description: "5-7 days delivery"},
	{Method: DeliveryStandard, Name: "Standard", Cost: decimal.NewFromInt(10), Description: "3-5 days delivery"},
	{Method: DeliveryExpress, Name: "Express", Cost: decimal.NewFromInt(20), Description: "2-3 days delivery"},
}

func (m DeliveryMethod) option() (DeliveryOption, bool) {
	for _, o := range DeliveryOptions {
		if o.Method == m {
			return o, true
		}
	}
	return DeliveryOption{}, false
}

func (m DeliveryMethod) Valid() bool {
	_, ok := m.option()
	return ok
}

// ShippingCost looks the method up in the shipping table. Unknown methods cost nothing;
// billing validation rejects them before they can reach an order.
func (m DeliveryMethod) ShippingCost() decimal.Decimal {
	o, ok := m.option()
	if !ok {
		return decimal.Zero
	}
	return o.Cost
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentPaypal PaymentMethod = "paypal"
	PaymentCard   PaymentMethod = "card"
)

type PaymentOption struct {
	Method      PaymentMethod `json:"value"`
	Name        string        `json:"name"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
}

var PaymentOptions = []PaymentOption{
	{Method: PaymentCash, Name: "Cash", Label: "Cash on Delivery", Description: "Pay with cash when your order is delivered."},
	{Method: PaymentPaypal, Name: "Pay with Paypal", Label: "PayPal", Description: "You will be redirected to PayPal website to complete your purchase securely."},
	{Method: PaymentCard, Name: "Credit / Debit card", Label: "Credit Card", Description: "We support Mastercard, Visa, Discover and Stripe."},
}

func (m PaymentMethod) Valid() bool {
	for _, o := range PaymentOptions {
		if o.Method == m {
			return true
		}
	}
	return false
}
