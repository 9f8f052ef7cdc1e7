// Package checkout implements the three step checkout flow: cart review,
// billing capture and order confirmation.
package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/furstore/internal/cart"
	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/validation"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrIllegalTransition  = errors.New("illegal checkout transition")
	ErrInvalidBilling     = errors.New("invalid billing address")
	ErrSubmissionInFlight = errors.New("order submission already in flight")
)

const (
	msgOrderPlaced = "Order made successfully"
	msgOrderFailed = "Failed to make order"
)

// OrderSubmitter creates an order in the backend.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
}

// Notifier shows a transient message to the shopper. It must not block.
type Notifier interface {
	Notify(n domain.Notification)
}

type Navigator interface {
	Navigate(path string)
}

// Outcome describes a finished order submission. Err carries the transport
// error behind a failed Result, if there was one.
type Outcome struct {
	Result   domain.OrderResult
	Redirect string
	Err      error
}

// Wizard drives one session's checkout. It reads prices from the cart store
// and clears it after a placed order.
type Wizard struct {
	mu         sync.Mutex
	cart       *cart.Store
	submitter  OrderSubmitter
	notifier   Notifier
	navigator  Navigator
	state      domain.CheckoutState
	submitting bool
}

// NewWizard resumes a checkout from state. An unknown step restarts at the cart.
func NewWizard(store *cart.Store, submitter OrderSubmitter, notifier Notifier, navigator Navigator, state domain.CheckoutState) *Wizard {
	if !state.Step.Valid() {
		state = domain.NewCheckoutState()
	}
	return &Wizard{
		cart:      store,
		submitter: submitter,
		notifier:  notifier,
		navigator: navigator,
		state:     cloneState(state),
	}
}

// State returns a copy of the persisted wizard state.
func (w *Wizard) State() domain.CheckoutState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneState(w.state)
}

func (w *Wizard) Step() domain.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Step
}

// Submitting reports whether an order submission is outstanding.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Render applies the confirmation guard and returns the state to display.
// Confirmation without billing data falls back to Billing.
func (w *Wizard) Render() domain.CheckoutState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.heal()
	return cloneState(w.state)
}

// Proceed moves from Cart to Billing. An empty cart cannot proceed.
func (w *Wizard) Proceed() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != domain.StepCart {
		return ErrIllegalTransition
	}
	if w.cart.IsEmpty() {
		return ErrEmptyCart
	}
	return w.moveTo(domain.StepBilling)
}

// Back moves one step towards the cart. Billing data is kept.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return ErrSubmissionInFlight
	}
	if w.state.Step == domain.StepCart {
		return nil
	}
	return w.moveTo(w.state.Step - 1)
}

// SubmitBilling stores addr and moves to Confirmation when it validates.
// On failure the wizard stays on Billing and the field errors are returned
// together with ErrInvalidBilling.
func (w *Wizard) SubmitBilling(addr domain.BillingAddress) (validation.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.Step.CanTransitionTo(domain.StepConfirmation) {
		return validation.Result{}, ErrIllegalTransition
	}
	addr = addr.WithDefaults()
	res := validation.Billing(addr)
	if !res.OK() {
		return res, ErrInvalidBilling
	}
	w.state.Billing = &addr
	return res, w.moveTo(domain.StepConfirmation)
}

// moveTo changes the step when the step graph allows it. Callers hold w.mu.
func (w *Wizard) moveTo(next domain.Step) error {
	if !w.state.Step.CanTransitionTo(next) {
		return ErrIllegalTransition
	}
	w.state.Step = next
	return nil
}

// Totals prices the cart with the chosen delivery method, free until one is chosen.
func (w *Wizard) Totals() domain.CartTotals {
	w.mu.Lock()
	method := domain.DeliveryFree
	if w.state.Billing != nil {
		method = w.state.Billing.DeliveryMethod
	}
	w.mu.Unlock()
	return w.cart.ComputeTotals(method)
}

// OrderRequest composes the order payload from the billing data and the cart.
func (w *Wizard) OrderRequest() (domain.OrderRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Billing == nil {
		return domain.OrderRequest{}, ErrIllegalTransition
	}
	return w.orderRequest(), nil
}

func (w *Wizard) orderRequest() domain.OrderRequest {
	b := w.state.Billing
	items := w.cart.Items()
	totals := cart.ComputeTotals(items, b.DeliveryMethod)
	return domain.OrderRequest{
		CustomerID:     b.CustomerID,
		Phone:          b.Phone,
		Address:        b.Address,
		DeliveryMethod: b.DeliveryMethod,
		PaymentMethod:  b.PaymentMethod,
		SubTotal:       totals.Subtotal,
		GrandTotal:     totals.GrandTotal,
		ShippingCost:   totals.Shipping,
		Products:       cart.OrderProducts(items),
	}
}

// CompleteOrder submits the order once. The returned error is only set when
// the submission was refused before reaching the submitter; backend and
// transport failures come back as an unsuccessful Outcome and leave the wizard
// on Confirmation so the shopper can retry.
func (w *Wizard) CompleteOrder(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return Outcome{}, ErrSubmissionInFlight
	}
	if w.heal() || w.state.Step != domain.StepConfirmation {
		w.mu.Unlock()
		return Outcome{}, ErrIllegalTransition
	}
	if w.cart.IsEmpty() {
		w.mu.Unlock()
		return Outcome{}, ErrEmptyCart
	}
	req := w.orderRequest()
	w.submitting = true
	w.mu.Unlock()

	res, err := w.submitter.CreateOrder(ctx, req)

	w.mu.Lock()
	w.submitting = false
	if errors.Is(err, ErrSubmissionInFlight) {
		w.mu.Unlock()
		return Outcome{}, err
	}
	out := Outcome{Result: res, Err: err}
	if err != nil {
		out.Result = domain.OrderResult{Success: false, Message: msgOrderFailed}
	}
	if !out.Result.Success {
		if out.Result.Message == "" {
			out.Result.Message = msgOrderFailed
		}
		w.mu.Unlock()
		w.notifier.Notify(domain.Notification{Kind: domain.NotifyError, Message: out.Result.Message})
		return out, nil
	}

	if out.Result.Message == "" {
		out.Result.Message = msgOrderPlaced
	}
	out.Redirect = domain.OrderSuccessPath(out.Result.OrderID)
	w.state = domain.NewCheckoutState()
	w.mu.Unlock()

	w.cart.Clear()
	w.notifier.Notify(domain.Notification{Kind: domain.NotifySuccess, Message: out.Result.Message})
	w.navigator.Navigate(out.Redirect)
	return out, nil
}

// Reset abandons the checkout and discards billing data.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = domain.NewCheckoutState()
}

// heal reports whether the confirmation guard had to step back.
func (w *Wizard) heal() bool {
	if w.state.Step == domain.StepConfirmation && w.state.Billing == nil {
		w.state.Step = domain.StepBilling
		return true
	}
	return false
}

func cloneState(s domain.CheckoutState) domain.CheckoutState {
	if s.Billing != nil {
		b := *s.Billing
		s.Billing = &b
	}
	return s
}
