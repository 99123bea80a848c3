package holdings

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/fill"
)

// Create takes a fill event and creates a new position for its instrument
func Create(f fill.Event) (*Position, error) {
	if f == nil {
		return nil, common.ErrNilEvent
	}
	p := &Position{Instrument: f.GetInstrument()}
	if _, err := p.Update(f); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies a fill to the position and returns the profit realised by
// any reduction. The average cost is volume weighted while the position
// grows, kept while it shrinks and reset to the fill price when it flips
func (p *Position) Update(f fill.Event) (decimal.Decimal, error) {
	if f == nil {
		return decimal.Zero, common.ErrNilEvent
	}
	if f.GetInstrument() != p.Instrument {
		return decimal.Zero, fmt.Errorf("%w %v vs %v", errInstrumentMismatch, f.GetInstrument(), p.Instrument)
	}
	if err := f.GetSide().Validate(); err != nil {
		return decimal.Zero, err
	}
	qty := f.GetQuantity()
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w, received %v", errInvalidQuantity, qty)
	}
	price := f.GetFillPrice()
	signed := qty.Mul(f.GetSide().Sign())
	var realised decimal.Decimal

	switch {
	case p.Quantity.IsZero(), p.Quantity.Sign() == signed.Sign():
		held := p.Quantity.Abs()
		p.AverageCost = held.Mul(p.AverageCost).Add(qty.Mul(price)).Div(held.Add(qty))
	default:
		closing := decimal.Min(qty, p.Quantity.Abs())
		realised = price.Sub(p.AverageCost).Mul(closing).Mul(decimal.NewFromInt(int64(p.Quantity.Sign())))
		if qty.GreaterThan(p.Quantity.Abs()) {
			p.AverageCost = price
		}
	}
	p.Quantity = p.Quantity.Add(signed)
	if p.Quantity.IsZero() {
		p.AverageCost = decimal.Zero
	}
	if f.GetSide() == common.Buy {
		p.BoughtQuantity = p.BoughtQuantity.Add(qty)
	} else {
		p.SoldQuantity = p.SoldQuantity.Add(qty)
	}
	p.RealisedPNL = p.RealisedPNL.Add(realised)
	p.TotalCommission = p.TotalCommission.Add(f.GetCommission())
	if p.LastPrice.IsZero() {
		p.LastPrice = price
	}
	p.LastUpdated = f.GetTime()
	return realised, nil
}

// UpdateValue marks the position to a price known at t
func (p *Position) UpdateValue(price decimal.Decimal, t time.Time) {
	p.LastPrice = price
	p.LastUpdated = t
}

// MarketValue returns the signed value of the position at its last price
func (p *Position) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.LastPrice)
}

// UnrealisedPNL returns the open profit at the last price
func (p *Position) UnrealisedPNL() decimal.Decimal {
	return p.LastPrice.Sub(p.AverageCost).Mul(p.Quantity)
}
