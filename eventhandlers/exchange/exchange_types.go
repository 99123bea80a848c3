package exchange

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/commission"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/slippage"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventtypes/fill"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/order"
	"github.com/thrasher-corp/gct-backtester/log"
)

// Fill price sources for market orders
const (
	FillAtOpen  = "open"
	FillAtClose = "close"
)

var (
	errDuplicateOrder   = errors.New("order id already received")
	errInvalidFillPrice = errors.New("invalid fill price source")
	errComplianceUnset  = errors.New("compliance manager unset")
	errCommissionUnset  = errors.New("commission model unset")
	errSlippageUnset    = errors.New("slippage model unset")
)

// ExecutionHandler simulates the market an order is sent to. Orders are
// registered by OnOrder and filled by OnMarket using bars strictly after
// the order time. Finalise closes whatever is left at the end of a run and
// returns the ids of the orders it closed
type ExecutionHandler interface {
	OnOrder(order.Event) (common.OrderStatus, error)
	OnMarket(kline.Event) ([]fill.Event, error)
	Finalise() []string
}

// Funder pays for buy fills. An error rejects the fill and the order
type Funder interface {
	ReserveFill(orderID string, cost decimal.Decimal) error
}

// Settings holds the microstructure models used by the simulator. Funds is
// optional, without it buys fill without a cash check
type Settings struct {
	FillPrice  string
	Commission commission.Calculator
	Slippage   slippage.Slipper
	Funds      Funder
}

// Exchange is the default execution simulator. Fills are all or nothing
type Exchange struct {
	fillPrice  string
	commission commission.Calculator
	slippage   slippage.Slipper
	funds      Funder
	compliance *compliance.Manager
	logger     *log.SubLogger
	orders     map[string]*trackedOrder
	received   []string
	lastTime   time.Time
	lastOffset int64
}

type trackedOrder struct {
	order  order.Event
	status common.OrderStatus
}
