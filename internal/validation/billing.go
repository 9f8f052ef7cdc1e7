package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/fjod/furstore/internal/domain"
)

// Billing validates the address form of the checkout's second step.
func Billing(b domain.BillingAddress) Result {
	var r Result
	r.check(b.CustomerID > 0, "customerId", "Customer is required")
	r.check(utf8.RuneCountInString(b.Phone) >= 10, "phone", "Phone number must be at least 10 digits")
	r.check(strings.TrimSpace(b.Address) != "", "address", "Address is required")
	r.check(b.DeliveryMethod.Valid(), "deliveryMethod", "Invalid delivery method")
	r.check(b.PaymentMethod.Valid(), "paymentMethod", "Invalid payment method")
	return r
}
