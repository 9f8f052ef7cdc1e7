package domain

import (
	"slices"
	"time"
)

// Session is everything the storefront keeps for one browser: the cart and the checkout wizard.
type Session struct {
	ID         string         `json:"id"`
	CustomerID int64          `json:"customerId,omitempty"`
	Items      []CartLineItem `json:"items"`
	Checkout   CheckoutState  `json:"checkout"`
	// SubmitToken scopes order idempotency to one checkout; it is reset after a placed order.
	SubmitToken string    `json:"submitToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Items:     []CartLineItem{},
		Checkout:  NewCheckoutState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Items = slices.Clone(s.Items)
	if c.Items == nil {
		c.Items = []CartLineItem{}
	}
	if s.Checkout.Billing != nil {
		b := *s.Checkout.Billing
		c.Checkout.Billing = &b
	}
	return &c
}
