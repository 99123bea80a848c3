package order

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
)

var (
	errInvalidQuantity   = errors.New("order quantity must be positive")
	errInvalidLimitPrice = errors.New("limit orders require a positive limit price")
	errMissingID         = errors.New("order id not set")
	errInvalidOrderType  = errors.New("invalid order type")
)

// Order is a sized and risk checked instruction to trade, only ever
// created by the portfolio
type Order struct {
	event.Base
	ID             string           `json:"id"`
	Side           common.Side      `json:"side"`
	Quantity       decimal.Decimal  `json:"quantity"`
	OrderType      common.OrderType `json:"order-type"`
	LimitPrice     decimal.Decimal  `json:"limit-price"`
	ReferencePrice decimal.Decimal  `json:"reference-price"`
}

// Event inherits common event interfaces along with extra functions related to orders
type Event interface {
	common.Event
	GetID() string
	GetSide() common.Side
	GetQuantity() decimal.Decimal
	GetOrderType() common.OrderType
	GetLimitPrice() decimal.Decimal
	GetReferencePrice() decimal.Decimal
}
