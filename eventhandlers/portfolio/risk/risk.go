package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
)

// EvaluateOrder goes through a standard list of evaluations to make to ensure that
// we are in a position to follow through with an order. The first failed
// check is returned
func (r *Risk) EvaluateOrder(a *Assessment) error {
	if r == nil || a == nil {
		return common.ErrNilArguments
	}
	if err := a.Side.Validate(); err != nil {
		return err
	}
	if !r.AllowShort {
		if a.TargetPosition.IsNegative() {
			return fmt.Errorf("%w, order would leave %v %v", ErrShortNotAllowed, a.TargetPosition, a.Instrument)
		}
		if a.MinimumPosition.IsNegative() {
			return fmt.Errorf("%w, order would leave %v %v if pending buys do not fill", ErrShortNotAllowed, a.MinimumPosition, a.Instrument)
		}
	}
	if a.Reducing {
		return nil
	}
	if r.MinimumSize.IsPositive() && a.Quantity.LessThan(r.MinimumSize) {
		return fmt.Errorf("%w, sized %v minimum %v", ErrBelowMinimum, a.Quantity, r.MinimumSize)
	}
	notional := a.Quantity.Mul(a.Price)
	projectedEquity := a.Equity.Sub(a.EstimatedCommission)
	if !r.AllowMargin {
		if a.Side == common.Buy {
			cost := notional.Add(a.EstimatedCommission)
			if cost.GreaterThan(a.AvailableCash) {
				return fmt.Errorf("%w, cost %v available %v", ErrInsufficientCash, cost, a.AvailableCash)
			}
		}
		if !projectedEquity.IsPositive() {
			return fmt.Errorf("%w, %v", ErrNegativeEquity, projectedEquity)
		}
	}
	if !r.MaximumHoldingRatio.IsPositive() && !r.MaximumGrossExposure.IsPositive() {
		return nil
	}
	if !projectedEquity.IsPositive() {
		return fmt.Errorf("%w, %v", ErrNegativeEquity, projectedEquity)
	}
	exposure := a.TargetPosition.Mul(a.Price).Abs()
	if r.MaximumHoldingRatio.IsPositive() {
		ratio := exposure.Div(projectedEquity)
		if ratio.GreaterThan(r.MaximumHoldingRatio) {
			return fmt.Errorf("%w, %v would be %v of equity, limit %v", ErrHoldingRatio, a.Instrument, ratio.StringFixed(4), r.MaximumHoldingRatio)
		}
	}
	if r.MaximumGrossExposure.IsPositive() {
		gross := assessGrossExposure(a.Instrument, exposure, a.Exposures).Div(projectedEquity)
		if gross.GreaterThan(r.MaximumGrossExposure) {
			return fmt.Errorf("%w, gross exposure would be %v of equity, limit %v", ErrGrossExposure, gross.StringFixed(4), r.MaximumGrossExposure)
		}
	}
	return nil
}

// EvaluateFunding checks that a fill costing cost can be paid from the
// available cash. Fills are always funded when margin is allowed
func (r *Risk) EvaluateFunding(cost, available decimal.Decimal) error {
	if r == nil {
		return common.ErrNilArguments
	}
	if r.AllowMargin || cost.LessThanOrEqual(available) {
		return nil
	}
	return fmt.Errorf("%w at fill, cost %v available %v", ErrInsufficientCash, cost, available)
}

func assessGrossExposure(instrument string, exposure decimal.Decimal, others map[string]decimal.Decimal) decimal.Decimal {
	gross := exposure
	for k, v := range others {
		if k == instrument {
			continue
		}
		gross = gross.Add(v.Abs())
	}
	return gross
}
