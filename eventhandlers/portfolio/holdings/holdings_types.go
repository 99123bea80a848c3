package holdings

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errInstrumentMismatch = errors.New("fill instrument does not match position")
	errInvalidQuantity    = errors.New("fill quantity must be positive")
)

// Position is the holding of a single instrument. Quantity is signed, a
// negative quantity is a short position
type Position struct {
	Instrument      string          `json:"instrument"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageCost     decimal.Decimal `json:"average-cost"`
	RealisedPNL     decimal.Decimal `json:"realised-pnl"`
	TotalCommission decimal.Decimal `json:"total-commission"`
	BoughtQuantity  decimal.Decimal `json:"bought-quantity"`
	SoldQuantity    decimal.Decimal `json:"sold-quantity"`
	LastPrice       decimal.Decimal `json:"last-price"`
	LastUpdated     time.Time       `json:"last-updated"`
}

// Equity is the value of the portfolio at the close of a bar time
type Equity struct {
	Time        time.Time       `json:"timestamp"`
	Offset      int64           `json:"-"`
	Cash        decimal.Decimal `json:"cash"`
	MarketValue decimal.Decimal `json:"market-value"`
	Equity      decimal.Decimal `json:"equity"`
}
