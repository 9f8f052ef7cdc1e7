package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/fjod/furstore/internal/cart"
	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/validation"
)

type wizardTestContext struct {
	products  map[int64]domain.ProductSnapshot
	store     *cart.Store
	submitter *mockSubmitter
	recorder  *Recorder
	wizard    *Wizard
	method    domain.DeliveryMethod
	err       error
	result    validation.Result
}

func (c *wizardTestContext) reset() {
	c.products = make(map[int64]domain.ProductSnapshot)
	c.store = cart.NewStore()
	c.submitter = &mockSubmitter{}
	c.recorder = &Recorder{}
	c.wizard = NewWizard(c.store, c.submitter, c.recorder, c.recorder, domain.NewCheckoutState())
	c.method = domain.DeliveryFree
	c.err = nil
	c.result = validation.Result{}
}

func (c *wizardTestContext) aProduct(id int64, price, discount int64, stock int) error {
	c.products[id] = chair(id, price, discount, stock)
	return nil
}

func (c *wizardTestContext) theCartHolds(qty int, id int64) error {
	p, ok := c.products[id]
	if !ok {
		return fmt.Errorf("unknown product %d", id)
	}
	c.store.AddItem(p, qty)
	return nil
}

func (c *wizardTestContext) theShopperChoosesDelivery(method string) error {
	c.method = domain.DeliveryMethod(method)
	return nil
}

func (c *wizardTestContext) amountIs(pick func(domain.CartTotals) decimal.Decimal) func(int64) error {
	return func(want int64) error {
		got := pick(c.store.ComputeTotals(c.method))
		if !got.Equal(decimal.NewFromInt(want)) {
			return fmt.Errorf("expected %d, got %s", want, got)
		}
		return nil
	}
}

func (c *wizardTestContext) theShopperSetsQuantity(id int64, qty int) error {
	c.store.SetQuantity(id, qty)
	return nil
}

func (c *wizardTestContext) theLineHasQuantity(id int64, qty int) error {
	item, ok := c.store.Item(id)
	if !ok {
		return fmt.Errorf("no line for product %d", id)
	}
	if item.Quantity != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, item.Quantity)
	}
	return nil
}

func (c *wizardTestContext) theCartHasNoLineFor(id int64) error {
	if _, ok := c.store.Item(id); ok {
		return fmt.Errorf("product %d still in cart", id)
	}
	return nil
}

func (c *wizardTestContext) theCartIsEmpty() error {
	if !c.store.IsEmpty() {
		return fmt.Errorf("cart has %d lines", c.store.Len())
	}
	return nil
}

func (c *wizardTestContext) theShopperProceeds() error {
	c.err = c.wizard.Proceed()
	return nil
}

func (c *wizardTestContext) theWizardRefusesWith(msg string) error {
	if c.err == nil || c.err.Error() != msg {
		return fmt.Errorf("expected error %q, got %v", msg, c.err)
	}
	return nil
}

func (c *wizardTestContext) theWizardIsOnStep(name string) error {
	if got := c.wizard.Step().String(); got != name {
		return fmt.Errorf("expected step %q, got %q", name, got)
	}
	return nil
}

func (c *wizardTestContext) theShopperSubmitsBilling(phone, address string) error {
	c.result, c.err = c.wizard.SubmitBilling(domain.BillingAddress{CustomerID: 7, Phone: phone, Address: address})
	return nil
}

func (c *wizardTestContext) theFieldHasError(field, msg string) error {
	got, ok := c.result.Field(field)
	if !ok || got != msg {
		return fmt.Errorf("expected %s error %q, got %q", field, msg, got)
	}
	return nil
}

func (c *wizardTestContext) theWizardWasRestoredWithoutBilling(name string) error {
	for s := domain.StepCart; s <= domain.StepConfirmation; s++ {
		if s.String() == name {
			c.wizard = NewWizard(c.store, c.submitter, c.recorder, c.recorder, domain.CheckoutState{Step: s})
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", name)
}

func (c *wizardTestContext) theWizardRenders() error {
	c.wizard.Render()
	return nil
}

func (c *wizardTestContext) theBackendAccepts(id int64) error {
	c.submitter.result = domain.OrderResult{Success: true, Message: "Order made successfully", OrderID: id}
	return nil
}

func (c *wizardTestContext) theBackendRejects(msg string) error {
	c.submitter.result = domain.OrderResult{Success: false, Message: msg}
	return nil
}

func (c *wizardTestContext) theShopperReachesConfirmation() error {
	if err := c.wizard.Proceed(); err != nil {
		return err
	}
	b := domain.BillingAddress{CustomerID: 7, Phone: "0912345678", Address: "12 Oak Street", DeliveryMethod: domain.DeliveryStandard}
	_, err := c.wizard.SubmitBilling(b)
	return err
}

func (c *wizardTestContext) theShopperCompletesTheOrder(ctx context.Context) error {
	_, c.err = c.wizard.CompleteOrder(ctx)
	return c.err
}

func (c *wizardTestContext) theShopperIsSentTo(path string) error {
	if got := c.recorder.Redirect(); got != path {
		return fmt.Errorf("expected redirect %q, got %q", path, got)
	}
	return nil
}

func (c *wizardTestContext) theShopperIsNotified(kind, msg string) error {
	for _, n := range c.recorder.Notifications() {
		if string(n.Kind) == kind && n.Message == msg {
			return nil
		}
	}
	return fmt.Errorf("no %s notification %q in %v", kind, msg, c.recorder.Notifications())
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &wizardTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a product (\d+) priced (\d+) with (\d+) percent discount and stock (\d+)$`, tc.aProduct)
	ctx.Step(`^the cart holds (\d+) of product (\d+)$`, tc.theCartHolds)
	ctx.Step(`^the shopper chooses "([^"]*)" delivery$`, tc.theShopperChoosesDelivery)
	ctx.Step(`^the shopper sets product (\d+) quantity to (-?\d+)$`, tc.theShopperSetsQuantity)
	ctx.Step(`^the shopper proceeds from the cart$`, tc.theShopperProceeds)
	ctx.Step(`^the shopper submits billing with phone "([^"]*)" and address "([^"]*)"$`, tc.theShopperSubmitsBilling)
	ctx.Step(`^the wizard was restored on step "([^"]*)" without billing$`, tc.theWizardWasRestoredWithoutBilling)
	ctx.Step(`^the wizard renders$`, tc.theWizardRenders)
	ctx.Step(`^the backend accepts orders with id (\d+)$`, tc.theBackendAccepts)
	ctx.Step(`^the backend rejects orders with "([^"]*)"$`, tc.theBackendRejects)
	ctx.Step(`^the shopper reaches confirmation$`, tc.theShopperReachesConfirmation)
	ctx.Step(`^the shopper completes the order$`, tc.theShopperCompletesTheOrder)

	ctx.Step(`^the subtotal is (\d+)$`, tc.amountIs(func(t domain.CartTotals) decimal.Decimal { return t.Subtotal }))
	ctx.Step(`^the discount is (\d+)$`, tc.amountIs(func(t domain.CartTotals) decimal.Decimal { return t.Discount }))
	ctx.Step(`^the shipping is (\d+)$`, tc.amountIs(func(t domain.CartTotals) decimal.Decimal { return t.Shipping }))
	ctx.Step(`^the grand total is (\d+)$`, tc.amountIs(func(t domain.CartTotals) decimal.Decimal { return t.GrandTotal }))
	ctx.Step(`^the line for product (\d+) has quantity (\d+)$`, tc.theLineHasQuantity)
	ctx.Step(`^the cart has no line for product (\d+)$`, tc.theCartHasNoLineFor)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the wizard refuses with "([^"]*)"$`, tc.theWizardRefusesWith)
	ctx.Step(`^the wizard is on step "([^"]*)"$`, tc.theWizardIsOnStep)
	ctx.Step(`^the field "([^"]*)" has error "([^"]*)"$`, tc.theFieldHasError)
	ctx.Step(`^the shopper is sent to "([^"]*)"$`, tc.theShopperIsSentTo)
	ctx.Step(`^the shopper is notified "([^"]*)" with "([^"]*)"$`, tc.theShopperIsNotified)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
