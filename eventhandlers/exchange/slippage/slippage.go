package slippage

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
)

// Validate checks the model is known and the basis points are sane
func (s *Settings) Validate() error {
	model := strings.ToLower(s.Model)
	switch model {
	case "", None, Fixed, Random:
	default:
		return fmt.Errorf("%w %q", errInvalidModel, s.Model)
	}
	if s.FixedBasisPoints.IsNegative() || s.MinimumBasisPoints.IsNegative() || s.MaximumBasisPoints.IsNegative() {
		return errNegativeValue
	}
	if s.FixedBasisPoints.GreaterThanOrEqual(basisPoints) || s.MaximumBasisPoints.GreaterThanOrEqual(basisPoints) {
		return errTooLarge
	}
	if model == Random && s.MinimumBasisPoints.GreaterThan(s.MaximumBasisPoints) {
		return fmt.Errorf("%w %v > %v", errMinAboveMax, s.MinimumBasisPoints, s.MaximumBasisPoints)
	}
	return nil
}

// New validates the settings and returns the slippage model. r is only
// required by the random model
func New(s Settings, r *rand.Rand) (*Model, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	model := strings.ToLower(s.Model)
	if model == "" {
		model = None
	}
	if model == Random && r == nil {
		return nil, errNilRand
	}
	return &Model{
		model: model,
		fixed: s.FixedBasisPoints,
		min:   s.MinimumBasisPoints,
		max:   s.MaximumBasisPoints,
		rand:  r,
	}, nil
}

// Apply moves the price against the trade, buys pay more and sells receive less
func (m *Model) Apply(side common.Side, price decimal.Decimal) decimal.Decimal {
	bps := m.basisPoints()
	if bps.IsZero() {
		return price
	}
	adjustment := price.Mul(bps).Div(basisPoints)
	if side == common.Sell {
		return price.Sub(adjustment)
	}
	return price.Add(adjustment)
}

func (m *Model) basisPoints() decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	switch m.model {
	case Fixed:
		return m.fixed
	case Random:
		spread := m.max.Sub(m.min)
		return m.min.Add(spread.Mul(decimal.NewFromFloat(m.rand.Float64())))
	default:
		return decimal.Zero
	}
}
