package statistics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/holdings"
)

var (
	errReceivedNoData  = errors.New("received no data")
	errNoInitialFunds  = errors.New("initial funds must be above zero")
	errAlreadyComputed = errors.New("results have already been calculated")
)

// Statistic holds the summary of a single backtesting run, from drawdowns
// to ratios
type Statistic struct {
	StrategyName             string                `json:"strategy-name"`
	StrategyNickname         string                `json:"strategy-nickname"`
	StrategyGoal             string                `json:"strategy-goal"`
	StartDate                time.Time             `json:"start-date"`
	EndDate                  time.Time             `json:"end-date"`
	Interval                 time.Duration         `json:"interval"`
	InitialFunds             decimal.Decimal       `json:"initial-funds"`
	FinalCash                decimal.Decimal       `json:"final-cash"`
	FinalEquity              decimal.Decimal       `json:"final-equity"`
	TotalReturn              decimal.Decimal       `json:"total-return"`
	CompoundAnnualGrowthRate decimal.Decimal       `json:"compound-annual-growth-rate"`
	MaxDrawdown              Swing                 `json:"max-drawdown"`
	SharpeRatio              decimal.Decimal       `json:"sharpe-ratio"`
	AnnualisedSharpeRatio    decimal.Decimal       `json:"annualised-sharpe-ratio"`
	TotalBuyOrders           int64                 `json:"total-buy-orders"`
	TotalSellOrders          int64                 `json:"total-sell-orders"`
	TotalFills               int64                 `json:"total-fills"`
	TotalRejections          int64                 `json:"total-rejections"`
	TotalExpired             int64                 `json:"total-expired"`
	TotalCancelled           int64                 `json:"total-cancelled"`
	TotalCommission          decimal.Decimal       `json:"total-commission"`
	TotalSlippage            decimal.Decimal       `json:"total-slippage"`
	RealisedPNL              decimal.Decimal       `json:"realised-pnl"`
	UnrealisedPNL            decimal.Decimal       `json:"unrealised-pnl"`
	IsStrategyProfitable     bool                  `json:"is-strategy-profitable"`
	InstrumentStatistics     []InstrumentStatistic `json:"instrument-statistics"`
	EquityCurve              []holdings.Equity     `json:"-"`

	computed bool
}

// InstrumentStatistic is the final state of a single instrument
type InstrumentStatistic struct {
	Instrument      string          `json:"instrument"`
	FinalQuantity   decimal.Decimal `json:"final-quantity"`
	AverageCost     decimal.Decimal `json:"average-cost"`
	LastPrice       decimal.Decimal `json:"last-price"`
	BoughtQuantity  decimal.Decimal `json:"bought-quantity"`
	SoldQuantity    decimal.Decimal `json:"sold-quantity"`
	RealisedPNL     decimal.Decimal `json:"realised-pnl"`
	UnrealisedPNL   decimal.Decimal `json:"unrealised-pnl"`
	TotalCommission decimal.Decimal `json:"total-commission"`
}

// Swing holds a drawdown
type Swing struct {
	Highest         ValueAtTime     `json:"highest"`
	Lowest          ValueAtTime     `json:"lowest"`
	DrawdownPercent decimal.Decimal `json:"drawdown"`
	Intervals       int64           `json:"intervals"`
}

// ValueAtTime is an individual iteration of equity at a time
type ValueAtTime struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}
