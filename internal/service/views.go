package service

import (
	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/validation"
)

type CartView struct {
	Items     []domain.CartLineItem  `json:"items"`
	Totals    domain.CartTotals      `json:"totals"`
	Formatted domain.FormattedTotals `json:"formatted"`
	// OverStock lists product ids whose quantity exceeds the stock on their snapshot.
	OverStock []int64 `json:"overStock,omitempty"`
}

type CheckoutView struct {
	Step          domain.Step             `json:"step"`
	StepName      string                  `json:"stepName"`
	Steps         []domain.StepView       `json:"steps"`
	Billing       *domain.BillingAddress  `json:"billing"`
	Cart          CartView                `json:"cart"`
	Notifications []domain.Notification   `json:"notifications"`
	Redirect      string                  `json:"redirect,omitempty"`
	Errors        []validation.FieldError `json:"errors,omitempty"`
	Result        *domain.OrderResult     `json:"result,omitempty"`
}

func newCartView(sc *scope) CartView {
	method := domain.DeliveryFree
	if b := sc.wizard.State().Billing; b != nil {
		method = b.DeliveryMethod
	}
	totals := sc.store.ComputeTotals(method)
	view := CartView{
		Items:     sc.store.Items(),
		Totals:    totals,
		Formatted: totals.Formatted(),
	}
	for _, it := range sc.store.OverStock() {
		view.OverStock = append(view.OverStock, it.Product.ID)
	}
	return view
}

func newCheckoutView(sc *scope) CheckoutView {
	state := sc.wizard.State()
	return CheckoutView{
		Step:          state.Step,
		StepName:      state.Step.String(),
		Steps:         domain.Steps(state.Step),
		Billing:       state.Billing,
		Cart:          newCartView(sc),
		Notifications: sc.recorder.Notifications(),
		Redirect:      sc.recorder.Redirect(),
	}
}
