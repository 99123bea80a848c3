package portfolio

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/commission"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/holdings"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/risk"
	"github.com/thrasher-corp/gct-backtester/eventtypes/fill"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/order"
	"github.com/thrasher-corp/gct-backtester/eventtypes/signal"
	"github.com/thrasher-corp/gct-backtester/log"
)

var (
	errSizeManagerUnset       = errors.New("size manager unset")
	errRiskManagerUnset       = errors.New("risk manager unset")
	errComplianceManagerUnset = errors.New("compliance manager unset")
	errInitialFundsZero       = errors.New("initial funds must be above zero")
	errEquityOutOfOrder       = errors.New("equity update is earlier than the latest entry")
	errDuplicateFill          = errors.New("order has already been filled")
	errNoPrice                = errors.New("no reference price")
	errOrderNotPending        = errors.New("order is not pending")
	errInvalidOrderType       = errors.New("invalid order type")
	errInvalidLimitOffset     = errors.New("limit offset must be at least zero and below 10000 basis points")
)

var basisPoints = decimal.NewFromInt(10000)

// Handler contains all functions expected to operate a portfolio manager
type Handler interface {
	OnMarket(kline.Event) error
	OnSignal(signal.Event) (*order.Order, error)
	OnFill(fill.Event) error
	CancelPending(string) bool
	Snapshot() Snapshot
}

// SizeHandler is the interface to help size orders
type SizeHandler interface {
	SizeTarget(price, equity decimal.Decimal) (decimal.Decimal, error)
}

// RiskHandler evaluates a proposed order against risk limits and whether a
// fill can be paid for
type RiskHandler interface {
	EvaluateOrder(*risk.Assessment) error
	EvaluateFunding(cost, available decimal.Decimal) error
}

// Portfolio stores all holdings and rules to assess orders, allowing the portfolio manager to
// modify, accept or reject strategy signals. It is the only writer of its
// own state
type Portfolio struct {
	m             sync.RWMutex
	initialFunds  decimal.Decimal
	cash          decimal.Decimal
	positions     map[string]*holdings.Position
	pending       map[string]pendingOrder
	filled        map[string]struct{}
	latestPrices  map[string]decimal.Decimal
	equity        []holdings.Equity
	orderSequence int64
	orderType     common.OrderType
	limitOffset   decimal.Decimal
	sizeManager   SizeHandler
	riskManager   RiskHandler
	fee           commission.Calculator
	compliance    *compliance.Manager
	logger        *log.SubLogger
}

// pendingOrder is an order sent to the execution simulator which has not
// been filled or discarded. Quantity is signed
type pendingOrder struct {
	instrument   string
	quantity     decimal.Decimal
	reservedCash decimal.Decimal
}

// Snapshot is a read only copy of the portfolio state
type Snapshot struct {
	InitialFunds    decimal.Decimal              `json:"initial-funds"`
	Cash            decimal.Decimal              `json:"cash"`
	Positions       map[string]holdings.Position `json:"positions"`
	PendingQuantity map[string]decimal.Decimal   `json:"pending-quantity"`
	EquityCurve     []holdings.Equity            `json:"equity-curve"`
}
