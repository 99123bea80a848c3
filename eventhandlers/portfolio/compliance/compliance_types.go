package compliance

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
)

// Sources of audit records
const (
	SourcePortfolio = "portfolio"
	SourceExecution = "execution"
)

var (
	errInvalidStatus = errors.New("invalid audit record status")
	errMissingSource = errors.New("audit record source not set")
)

// Manager holds the append-only audit log of a run. Fills, rejections,
// expiries and cancellations are recorded in the order they happen
type Manager struct {
	m       sync.RWMutex
	records []Record
}

// Record is a single audit log entry
type Record struct {
	Time       time.Time          `json:"timestamp"`
	Offset     int64              `json:"offset"`
	Status     common.OrderStatus `json:"status"`
	Source     string             `json:"source"`
	Instrument string             `json:"instrument"`
	OrderID    string             `json:"order-id,omitempty"`
	Direction  common.Direction   `json:"direction,omitempty"`
	Side       common.Side        `json:"side,omitempty"`
	OrderType  common.OrderType   `json:"order-type,omitempty"`
	Quantity   decimal.Decimal    `json:"quantity"`
	Price      decimal.Decimal    `json:"price"`
	Commission decimal.Decimal    `json:"commission"`
	Slippage   decimal.Decimal    `json:"slippage"`
	Reason     string             `json:"reason,omitempty"`
}
