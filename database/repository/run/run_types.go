package run

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errInvalidID = errors.New("run id cannot be empty")
	errNilRun    = errors.New("nil run summary")
	// ErrRunNotFound is returned when no run is stored under an id
	ErrRunNotFound = errors.New("run not found")
)

// Summary is the stored outcome of a single backtesting run
type Summary struct {
	ID              string          `json:"id"`
	Nickname        string          `json:"nickname"`
	Strategy        string          `json:"strategy"`
	Status          string          `json:"status"`
	Reason          string          `json:"reason"`
	Started         time.Time       `json:"started"`
	Finished        time.Time       `json:"finished"`
	InitialFunds    decimal.Decimal `json:"initial-funds"`
	FinalEquity     decimal.Decimal `json:"final-equity"`
	TotalReturn     decimal.Decimal `json:"total-return"`
	MaxDrawdown     decimal.Decimal `json:"max-drawdown"`
	SharpeRatio     decimal.Decimal `json:"sharpe-ratio"`
	Fills           int64           `json:"fills"`
	Rejections      int64           `json:"rejections"`
	DiscardedEvents int64           `json:"discarded-events"`
}
