package domain

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with comma thousands separators and two
// decimals, rounding half away from zero. No float conversion is involved.
func FormatMoney(d decimal.Decimal) string {
	r := d.Round(2)
	whole, frac, _ := strings.Cut(r.Abs().StringFixed(2), ".")
	n, _ := new(big.Int).SetString(whole, 10)
	out := humanize.BigComma(n) + "." + frac
	if r.Sign() < 0 {
		return "-" + out
	}
	return out
}

// FormatShipping shows "Free" for a zero shipping cost.
func FormatShipping(d decimal.Decimal) string {
	if d.IsZero() {
		return "Free"
	}
	return FormatMoney(d)
}
