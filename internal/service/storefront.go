package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fjod/furstore/internal/backend"
	"github.com/fjod/furstore/internal/cache"
	"github.com/fjod/furstore/internal/cart"
	"github.com/fjod/furstore/internal/checkout"
	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/validation"
)

var (
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrOutOfStock          = errors.New("no stock left for this product")
	ErrNotCancellable      = errors.New("only pending orders can be cancelled")
	ErrIllegalStatusChange = errors.New("order status cannot change to the requested value")
	ErrStatusUpdatePending = errors.New("a status update for this order is still pending")
	ErrCustomerRequired    = errors.New("customer identity required")
)

// ProductLookup resolves the snapshot stored on a cart line.
type ProductLookup interface {
	Product(ctx context.Context, id int64) (domain.ProductSnapshot, error)
}

// OrderBackend is the order half of the backend API.
type OrderBackend interface {
	checkout.OrderSubmitter
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	ListCustomerOrders(ctx context.Context, customerID int64, q domain.OrderQuery) (domain.OrderList, error)
	ListOrders(ctx context.Context, q domain.OrderQuery) (domain.OrderList, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (string, error)
}

// Visitor identifies the caller: the browser session and, once signed in, the customer.
type Visitor struct {
	SessionID  string
	CustomerID int64
}

type Deps struct {
	Sessions *SessionService
	Catalog  ProductLookup
	Orders   OrderBackend
	// Ledger and SubmitLock are optional.
	Ledger     Ledger
	SubmitLock cache.SubmitLock
	Tracker    *StatusTracker
	Log        zerolog.Logger
}

// Storefront runs shopper and admin operations against a loaded session.
// Operations on one session are serialised within the process.
type Storefront struct {
	sessions   *SessionService
	catalog    ProductLookup
	orders     OrderBackend
	ledger     Ledger
	submitLock cache.SubmitLock
	tracker    *StatusTracker
	locks      sessionLocks
	now        func() time.Time
	log        zerolog.Logger
}

func NewStorefront(d Deps) *Storefront {
	tracker := d.Tracker
	if tracker == nil {
		tracker = NewStatusTracker(0, 0)
	}
	return &Storefront{
		sessions:   d.Sessions,
		catalog:    d.Catalog,
		orders:     d.Orders,
		ledger:     d.Ledger,
		submitLock: d.SubmitLock,
		tracker:    tracker,
		now:        time.Now,
		log:        d.Log.With().Str("component", "storefront").Logger(),
	}
}

// scope is one session loaded into a live cart and wizard.
type scope struct {
	sess     *domain.Session
	store    *cart.Store
	wizard   *checkout.Wizard
	recorder *checkout.Recorder
}

func (s *Storefront) lockSession(sessionID string) func() {
	return s.locks.lock(sessionID)
}

func (s *Storefront) open(ctx context.Context, v Visitor) (*scope, error) {
	sess, err := s.sessions.Get(ctx, v.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if v.CustomerID != 0 {
		sess.CustomerID = v.CustomerID
	}

	var submitter checkout.OrderSubmitter = s.orders
	if s.ledger != nil {
		submitter = &idempotentSubmitter{
			next:      s.orders,
			ledger:    s.ledger,
			sessionID: sess.ID,
			token:     sess.SubmitToken,
			now:       s.now,
			log:       s.log,
		}
	}

	store := cart.NewStore(sess.Items...)
	rec := &checkout.Recorder{}
	return &scope{
		sess:     sess,
		store:    store,
		wizard:   checkout.NewWizard(store, submitter, rec, rec, sess.Checkout),
		recorder: rec,
	}, nil
}

func (s *Storefront) save(ctx context.Context, sc *scope) error {
	sc.sess.Items = sc.store.Items()
	sc.sess.Checkout = sc.wizard.State()
	if err := s.sessions.Save(ctx, sc.sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// mutate loads the session, applies fn and saves the result unless fn fails.
func (s *Storefront) mutate(ctx context.Context, v Visitor, fn func(*scope) error) (*scope, error) {
	unlock := s.lockSession(v.SessionID)
	defer unlock()

	sc, err := s.open(ctx, v)
	if err != nil {
		return nil, err
	}
	if err := fn(sc); err != nil {
		return sc, err
	}
	if err := s.save(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Storefront) Cart(ctx context.Context, v Visitor) (CartView, error) {
	unlock := s.lockSession(v.SessionID)
	defer unlock()

	sc, err := s.open(ctx, v)
	if err != nil {
		return CartView{}, err
	}
	return newCartView(sc), nil
}

// AddItem looks the product up and adds up to the stock still free. It returns
// how many units went in; nothing left to add is ErrOutOfStock.
func (s *Storefront) AddItem(ctx context.Context, v Visitor, productID int64, quantity int) (CartView, int, error) {
	if quantity <= 0 {
		return CartView{}, 0, ErrInvalidQuantity
	}
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return CartView{}, 0, err
	}

	added := 0
	sc, err := s.mutate(ctx, v, func(sc *scope) error {
		added = sc.store.AddWithinStock(product, quantity)
		if added == 0 {
			return ErrOutOfStock
		}
		return nil
	})
	if sc == nil {
		return CartView{}, 0, err
	}
	return newCartView(sc), added, err
}

// SetQuantity sets a line's quantity, clamped to stock; zero removes it.
func (s *Storefront) SetQuantity(ctx context.Context, v Visitor, productID int64, quantity int) (CartView, error) {
	sc, err := s.mutate(ctx, v, func(sc *scope) error {
		sc.store.SetQuantity(productID, quantity)
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return newCartView(sc), nil
}

func (s *Storefront) RemoveItems(ctx context.Context, v Visitor, productIDs ...int64) (CartView, error) {
	sc, err := s.mutate(ctx, v, func(sc *scope) error {
		sc.store.RemoveItems(productIDs...)
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return newCartView(sc), nil
}

func (s *Storefront) ClearCart(ctx context.Context, v Visitor) (CartView, error) {
	sc, err := s.mutate(ctx, v, func(sc *scope) error {
		sc.store.Clear()
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return newCartView(sc), nil
}

// Checkout renders the wizard. A confirmation step without billing data is
// healed back to billing and saved.
func (s *Storefront) Checkout(ctx context.Context, v Visitor) (CheckoutView, error) {
	sc, err := s.mutate(ctx, v, func(sc *scope) error {
		sc.wizard.Render()
		return nil
	})
	if err != nil {
		return CheckoutView{}, err
	}
	return newCheckoutView(sc), nil
}

func (s *Storefront) Proceed(ctx context.Context, v Visitor) (CheckoutView, error) {
	return s.step(ctx, v, func(sc *scope) error { return sc.wizard.Proceed() })
}

func (s *Storefront) Back(ctx context.Context, v Visitor) (CheckoutView, error) {
	return s.step(ctx, v, func(sc *scope) error { return sc.wizard.Back() })
}

func (s *Storefront) step(ctx context.Context, v Visitor, fn func(*scope) error) (CheckoutView, error) {
	sc, err := s.mutate(ctx, v, fn)
	if sc == nil {
		return CheckoutView{}, err
	}
	return newCheckoutView(sc), err
}

// SubmitBilling stores the billing form. The customer id falls back to the
// signed-in customer. Field errors come back in the view with ErrInvalidBilling.
func (s *Storefront) SubmitBilling(ctx context.Context, v Visitor, addr domain.BillingAddress) (CheckoutView, error) {
	var res validation.Result
	sc, err := s.mutate(ctx, v, func(sc *scope) error {
		if addr.CustomerID == 0 {
			addr.CustomerID = sc.sess.CustomerID
		}
		var err error
		res, err = sc.wizard.SubmitBilling(addr)
		if err != nil {
			return err
		}
		sc.sess.SubmitToken = uuid.NewString()
		return nil
	})
	if sc == nil {
		return CheckoutView{}, err
	}
	view := newCheckoutView(sc)
	view.Errors = res.Errors
	return view, err
}

// CompleteOrder places the order. Refusals come back as errors; backend
// failures come back in the view's result and notifications.
func (s *Storefront) CompleteOrder(ctx context.Context, v Visitor) (CheckoutView, error) {
	if s.submitLock != nil {
		release, err := s.submitLock.Acquire(ctx, v.SessionID)
		if errors.Is(err, cache.ErrLocked) {
			return CheckoutView{}, checkout.ErrSubmissionInFlight
		}
		if err != nil {
			return CheckoutView{}, fmt.Errorf("failed to acquire submit lock: %w", err)
		}
		defer release()
	}

	var out checkout.Outcome
	sc, err := s.mutate(ctx, v, func(sc *scope) error {
		var err error
		out, err = sc.wizard.CompleteOrder(ctx)
		if err != nil {
			return err
		}
		if out.Result.Success {
			sc.sess.SubmitToken = ""
		}
		return nil
	})
	if sc == nil {
		return CheckoutView{}, err
	}
	if out.Err != nil {
		s.log.Warn().Err(out.Err).Str("session_id", v.SessionID).Msg("order submission failed")
	}
	view := newCheckoutView(sc)
	if err == nil {
		view.Result = &out.Result
	}
	return view, err
}

// CustomerOrders lists the customer's own orders.
func (s *Storefront) CustomerOrders(ctx context.Context, customerID int64, q domain.OrderQuery) (domain.OrderList, error) {
	if customerID == 0 {
		return domain.OrderList{}, ErrCustomerRequired
	}
	if res := validation.OrderQuery(q); !res.OK() {
		return domain.OrderList{}, res
	}
	return s.orders.ListCustomerOrders(ctx, customerID, validation.NormalizeOrderQuery(q))
}

// CustomerOrder returns one of the customer's orders. Orders of other customers are not found.
func (s *Storefront) CustomerOrder(ctx context.Context, customerID, orderID int64) (domain.Order, error) {
	if customerID == 0 {
		return domain.Order{}, ErrCustomerRequired
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.CustomerID != customerID {
		return domain.Order{}, backend.ErrNotFound
	}
	return order, nil
}

func (s *Storefront) CancelOrder(ctx context.Context, customerID, orderID int64) (domain.Order, error) {
	order, err := s.CustomerOrder(ctx, customerID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.CustomerCancellable() {
		return order, ErrNotCancellable
	}
	if _, err := s.orders.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCancelled); err != nil {
		return order, err
	}
	order.Status = domain.OrderStatusCancelled
	return order, nil
}

func (s *Storefront) AdminOrders(ctx context.Context, q domain.OrderQuery) (domain.OrderList, error) {
	if res := validation.OrderQuery(q); !res.OK() {
		return domain.OrderList{}, res
	}
	return s.orders.ListOrders(ctx, validation.NormalizeOrderQuery(q))
}

// UpdateOrderStatus changes an order's status through the tracker. A failed
// backend call returns the failed record along with the error.
func (s *Storefront) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (StatusUpdate, error) {
	if !status.Valid() {
		return StatusUpdate{}, ErrIllegalStatusChange
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return StatusUpdate{}, err
	}
	if !order.Status.CanTransitionTo(status) {
		return StatusUpdate{}, ErrIllegalStatusChange
	}

	update, ok := s.tracker.Begin(orderID, order.Status, status)
	if !ok {
		return update, ErrStatusUpdatePending
	}

	msg, err := s.orders.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		failMsg := "Failed to update order status"
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			failMsg = apiErr.Message
		}
		s.log.Warn().Err(err).Int64("order_id", orderID).Str("status", status.String()).Msg("status update failed")
		return s.tracker.Fail(orderID, failMsg), err
	}
	return s.tracker.Confirm(orderID, msg), nil
}

func (s *Storefront) StatusUpdate(orderID int64) (StatusUpdate, bool) {
	return s.tracker.Get(orderID)
}
