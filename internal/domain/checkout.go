package domain

import "fmt"

// BillingAddress is captured on the billing step and lives only as long as the checkout.
type BillingAddress struct {
	CustomerID     int64          `json:"customerId"`
	Phone          string         `json:"phone"`
	Address        string         `json:"address"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
}

// WithDefaults fills the delivery and payment methods the billing form preselects.
func (b BillingAddress) WithDefaults() BillingAddress {
	if b.DeliveryMethod == "" {
		b.DeliveryMethod = DeliveryFree
	}
	if b.PaymentMethod == "" {
		b.PaymentMethod = PaymentCash
	}
	return b
}

type Step int

const (
	StepCart         Step = 1
	StepBilling      Step = 2
	StepConfirmation Step = 3
)

func (s Step) String() string {
	switch s {
	case StepCart:
		return "Cart"
	case StepBilling:
		return "Billing & address"
	case StepConfirmation:
		return "Confirmation"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

func (s Step) Valid() bool {
	return s >= StepCart && s <= StepConfirmation
}

// CanTransitionTo reports whether the wizard may move from s to next.
// Only neighbouring steps are reachable.
func (s Step) CanTransitionTo(next Step) bool {
	switch s {
	case StepCart:
		return next == StepBilling
	case StepBilling:
		return next == StepCart || next == StepConfirmation
	case StepConfirmation:
		return next == StepBilling
	default:
		return false
	}
}

// CheckoutState is the persisted part of the wizard.
type CheckoutState struct {
	Step    Step            `json:"step"`
	Billing *BillingAddress `json:"billing,omitempty"`
}

func NewCheckoutState() CheckoutState {
	return CheckoutState{Step: StepCart}
}

type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepPending   StepStatus = "pending"
)

type StepView struct {
	ID     Step       `json:"id"`
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
}

// Steps renders the stepper header for the given current step.
func Steps(current Step) []StepView {
	steps := make([]StepView, 0, 3)
	for s := StepCart; s <= StepConfirmation; s++ {
		status := StepPending
		switch {
		case current > s:
			status = StepCompleted
		case current == s:
			status = StepCurrent
		}
		steps = append(steps, StepView{ID: s, Name: s.String(), Status: status})
	}
	return steps
}
