package config

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/commission"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/slippage"
)

// Sizing methods
const (
	FixedQuantity   = "fixed-quantity"
	FixedFractional = "fixed-fractional"
)

var (
	errBadDate               = errors.New("start date >= end date, please check your config")
	errNoDataSource          = errors.New("no data source set, set either csv-data or database-data")
	errMultipleDataSources   = errors.New("only one data source can be set")
	errNoInstruments         = errors.New("no instruments set")
	errDuplicateInstrument   = errors.New("duplicate instrument")
	errMissingPath           = errors.New("missing csv path")
	errIntervalUnset         = errors.New("interval unset")
	errBadInitialFunds       = errors.New("initial funds must be above zero")
	errInvalidSizingMethod   = errors.New("invalid sizing method")
	errInvalidSizingQuantity = errors.New("sizing quantity must be above zero")
	errInvalidSizingFraction = errors.New("sizing fraction must be above zero and at most one")
	errNegativeLimit         = errors.New("risk limits cannot be negative")
	errInvalidLimitOffset    = errors.New("limit offset must be at least zero and below 10000 basis points")
	errInvalidFillPrice      = errors.New("invalid fill price, use open or close")
	errNoPath                = errors.New("no config path provided")

	errSizeLessThanZero       = errors.New("size less than zero")
	errMaxSizeMinSizeMismatch = errors.New("maximum size must be greater to minimum size")
	errMinMaxEqual            = errors.New("minimum and maximum limits cannot be equal")
)

// Config defines what is in an individual strategy run config
type Config struct {
	Nickname          string            `json:"nickname" mapstructure:"nickname"`
	Goal              string            `json:"goal" mapstructure:"goal"`
	StrategySettings  StrategySettings  `json:"strategy-settings" mapstructure:"strategy-settings"`
	DataSettings      DataSettings      `json:"data-settings" mapstructure:"data-settings"`
	PortfolioSettings PortfolioSettings `json:"portfolio-settings" mapstructure:"portfolio-settings"`
	ExecutionSettings ExecutionSettings `json:"execution-settings" mapstructure:"execution-settings"`
	OutputSettings    OutputSettings    `json:"output-settings" mapstructure:"output-settings"`
}

// StrategySettings names the strategy to run and its custom settings
type StrategySettings struct {
	Name           string         `json:"name" mapstructure:"name"`
	CustomSettings map[string]any `json:"custom-settings,omitempty" mapstructure:"custom-settings"`
}

// DataSettings determines where bars are loaded from. Start and end dates
// are optional for csv data
type DataSettings struct {
	Interval     time.Duration `json:"interval" mapstructure:"interval"`
	StartDate    time.Time     `json:"start-date,omitempty" mapstructure:"start-date"`
	EndDate      time.Time     `json:"end-date,omitempty" mapstructure:"end-date"`
	CSVData      []CSVData     `json:"csv-data,omitempty" mapstructure:"csv-data"`
	DatabaseData *DatabaseData `json:"database-data,omitempty" mapstructure:"database-data"`
}

// CSVData points an instrument at a csv file
type CSVData struct {
	Instrument string `json:"instrument" mapstructure:"instrument"`
	Path       string `json:"path" mapstructure:"path"`
}

// DatabaseData defines the instruments to load from the candle table. When
// no override is set the application database is used
type DatabaseData struct {
	Instruments    []string         `json:"instruments" mapstructure:"instruments"`
	ConfigOverride *database.Config `json:"config-override,omitempty" mapstructure:"config-override"`
}

// PortfolioSettings holds the sizing rule and risk limits. A zero holding
// ratio or gross exposure disables that check
type PortfolioSettings struct {
	InitialFunds         decimal.Decimal `json:"initial-funds" mapstructure:"initial-funds"`
	Sizing               Sizing          `json:"sizing" mapstructure:"sizing"`
	Limits               MinMax          `json:"limits" mapstructure:"limits"`
	AllowShort           bool            `json:"allow-short" mapstructure:"allow-short"`
	AllowMargin          bool            `json:"allow-margin" mapstructure:"allow-margin"`
	MaximumHoldingRatio  decimal.Decimal `json:"maximum-holding-ratio" mapstructure:"maximum-holding-ratio"`
	MaximumGrossExposure decimal.Decimal `json:"maximum-gross-exposure" mapstructure:"maximum-gross-exposure"`
	// OrderType is market or limit. Limit orders are placed
	// LimitOffsetBasisPoints away from the signal close
	OrderType              string          `json:"order-type" mapstructure:"order-type"`
	LimitOffsetBasisPoints decimal.Decimal `json:"limit-offset-bps" mapstructure:"limit-offset-bps"`
}

// Sizing determines how large a target position is. Fixed quantity uses
// Quantity shares, fixed fractional spends Fraction of current equity
type Sizing struct {
	Method   string          `json:"method" mapstructure:"method"`
	Quantity decimal.Decimal `json:"quantity" mapstructure:"quantity"`
	Fraction decimal.Decimal `json:"fraction" mapstructure:"fraction"`
}

// MinMax are the rules which limit the placement of orders.
type MinMax struct {
	MinimumSize  decimal.Decimal `json:"minimum-size" mapstructure:"minimum-size"` // will not place an order if under this amount
	MaximumSize  decimal.Decimal `json:"maximum-size" mapstructure:"maximum-size"` // can only place an order up to this amount
	MaximumTotal decimal.Decimal `json:"maximum-total" mapstructure:"maximum-total"`
}

// ExecutionSettings configures the execution simulator
type ExecutionSettings struct {
	FillPrice  string              `json:"fill-price" mapstructure:"fill-price"`
	Commission commission.Settings `json:"commission" mapstructure:"commission"`
	Slippage   slippage.Settings   `json:"slippage" mapstructure:"slippage"`
	Seed       int64               `json:"seed" mapstructure:"seed"`
}

// OutputSettings determines where run output is written. Empty paths are
// skipped
type OutputSettings struct {
	EquityLogPath     string `json:"equity-log-path,omitempty" mapstructure:"equity-log-path"`
	AuditLogPath      string `json:"audit-log-path,omitempty" mapstructure:"audit-log-path"`
	ReportPath        string `json:"report-path,omitempty" mapstructure:"report-path"`
	PersistToDatabase bool   `json:"persist-to-database" mapstructure:"persist-to-database"`
}
