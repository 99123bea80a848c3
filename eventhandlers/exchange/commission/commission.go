package commission

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validate checks the model is known and no value is negative
func (s *Settings) Validate() error {
	switch strings.ToLower(s.Model) {
	case "", None, Flat, PerShare, Percentage:
	default:
		return fmt.Errorf("%w %q", errInvalidModel, s.Model)
	}
	if s.Flat.IsNegative() || s.PerShare.IsNegative() || s.Rate.IsNegative() || s.Minimum.IsNegative() {
		return errNegativeValue
	}
	if s.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w, received %v", errRateTooHigh, s.Rate)
	}
	return nil
}

// New validates the settings and returns the matching fee calculator. An
// empty model charges nothing
func New(s Settings) (*Fee, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	model := strings.ToLower(s.Model)
	if model == "" {
		model = None
	}
	return &Fee{
		model:    model,
		flat:     s.Flat,
		perShare: s.PerShare,
		rate:     s.Rate,
		minimum:  s.Minimum,
	}, nil
}

// Calculate returns the commission for a fill of quantity at price
func (f *Fee) Calculate(price, quantity decimal.Decimal) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	var fee decimal.Decimal
	switch f.model {
	case Flat:
		return f.flat
	case PerShare:
		fee = f.perShare.Mul(quantity.Abs())
	case Percentage:
		fee = price.Mul(quantity.Abs()).Mul(f.rate)
	default:
		return decimal.Zero
	}
	if fee.LessThan(f.minimum) {
		fee = f.minimum
	}
	return fee
}

// Model returns the name of the model in use
func (f *Fee) Model() string {
	if f == nil {
		return None
	}
	return f.model
}
