package signal

import (
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
)

// Signal is the intent of a strategy to hold a position in an instrument.
// It carries no size, sizing belongs to the portfolio
type Signal struct {
	event.Base
	Direction  common.Direction `json:"direction"`
	Strength   decimal.Decimal  `json:"strength"`
	LimitPrice decimal.Decimal  `json:"limit-price"`
	ClosePrice decimal.Decimal  `json:"close-price"`
}

// Event handler is used for getting trade signal details
type Event interface {
	common.Event
	GetDirection() common.Direction
	GetStrength() decimal.Decimal
	GetLimitPrice() decimal.Decimal
	GetClosePrice() decimal.Decimal
}
