package risk

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
)

var (
	// ErrShortNotAllowed is returned when an order would leave a short position
	ErrShortNotAllowed = errors.New("short positions are not allowed")
	// ErrInsufficientCash is returned when a buy costs more than the available cash
	ErrInsufficientCash = errors.New("insufficient cash")
	// ErrNegativeEquity is returned when an order would leave equity at or below zero
	ErrNegativeEquity = errors.New("projected equity would be negative")
	// ErrHoldingRatio is returned when a position would exceed its share of equity
	ErrHoldingRatio = errors.New("maximum holding ratio exceeded")
	// ErrGrossExposure is returned when the sum of all positions would exceed the limit
	ErrGrossExposure = errors.New("maximum gross exposure exceeded")
	// ErrBelowMinimum is returned when an order is smaller than the minimum size
	ErrBelowMinimum = errors.New("order size below minimum")
)

// Risk holds the limits every order is evaluated against. A zero ratio or
// exposure disables that check
type Risk struct {
	AllowShort           bool
	AllowMargin          bool
	MinimumSize          decimal.Decimal
	MaximumHoldingRatio  decimal.Decimal
	MaximumGrossExposure decimal.Decimal
}

// Assessment describes a proposed order and the portfolio state it would be
// placed into. Exposures holds the signed projected value of every other
// instrument including their pending orders. Reducing orders only move the
// position towards flat and skip the minimum size and funding checks.
// MinimumPosition is the position left if pending buys never fill while
// pending sells and this order do
type Assessment struct {
	Instrument          string
	Side                common.Side
	Quantity            decimal.Decimal
	Price               decimal.Decimal
	EstimatedCommission decimal.Decimal
	TargetPosition      decimal.Decimal
	MinimumPosition     decimal.Decimal
	AvailableCash       decimal.Decimal
	Equity              decimal.Decimal
	Exposures           map[string]decimal.Decimal
	Reducing            bool
}
