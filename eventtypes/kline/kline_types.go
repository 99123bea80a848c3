package kline

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
)

var (
	errInvalidRange  = errors.New("price outside of bar range")
	errNegativeValue = errors.New("negative value")
	errMissingField  = errors.New("missing bar field")
)

// Kline holds a single market bar for an instrument and is processed as a
// common.DataEvent type
type Kline struct {
	event.Base
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Event is a market data event
type Event interface {
	common.DataEvent
}
