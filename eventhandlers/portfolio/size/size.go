package size

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/config"
)

// New builds a sizer from the portfolio settings
func New(s *config.PortfolioSettings) *Size {
	return &Size{
		Method:   strings.ToLower(s.Sizing.Method),
		Quantity: s.Sizing.Quantity,
		Fraction: s.Sizing.Fraction,
		Limits:   s.Limits,
	}
}

// SizeTarget returns the unsigned size of the position a LONG or SHORT
// signal targets. Sizes are whole units and respect the maximum size and
// maximum total limits. The minimum size applies to orders and is checked
// by risk
func (s *Size) SizeTarget(price, equity decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, errZeroPrice
	}
	var amount decimal.Decimal
	switch s.Method {
	case config.FixedQuantity:
		amount = s.Quantity
	case config.FixedFractional:
		if !equity.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w, equity %v", errNoFunds, equity)
		}
		amount = equity.Mul(s.Fraction).Div(price)
	default:
		return decimal.Zero, fmt.Errorf("%w %q", errUnknownMethod, s.Method)
	}
	if s.Limits.MaximumSize.IsPositive() && amount.GreaterThan(s.Limits.MaximumSize) {
		amount = s.Limits.MaximumSize
	}
	if s.Limits.MaximumTotal.IsPositive() && amount.Mul(price).GreaterThan(s.Limits.MaximumTotal) {
		amount = s.Limits.MaximumTotal.Div(price)
	}
	amount = amount.Floor()
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w at price %v", ErrCannotAllocate, price)
	}
	return amount, nil
}
