package fill

import (
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
)

// Fill is an event that details the execution of an order. It is the
// authoritative record of a trade, the fill price excludes commission
type Fill struct {
	event.Base
	OrderID        string          `json:"order-id"`
	Side           common.Side     `json:"side"`
	Quantity       decimal.Decimal `json:"quantity"`
	FillPrice      decimal.Decimal `json:"fill-price"`
	Commission     decimal.Decimal `json:"commission"`
	Slippage       decimal.Decimal `json:"slippage"`
	ReferencePrice decimal.Decimal `json:"reference-price"`
}

// Event holds all functions required to handle a fill event
type Event interface {
	common.Event
	GetOrderID() string
	GetSide() common.Side
	GetQuantity() decimal.Decimal
	GetFillPrice() decimal.Decimal
	GetCommission() decimal.Decimal
	GetSlippage() decimal.Decimal
	GetReferencePrice() decimal.Decimal
	GetNotional() decimal.Decimal
}
