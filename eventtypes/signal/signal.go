package signal

import (
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
)

// New creates a signal for the bar which triggered it. The signal shares the
// bar's offset, time and instrument and records its close as a reference price
func New(data common.DataEvent, direction common.Direction, reason string) *Signal {
	b := event.NewBase(data.GetOffset(), data.GetTime(), data.GetInstrument())
	return &Signal{
		Base:       b.WithReason(reason),
		Direction:  direction,
		Strength:   decimal.NewFromInt(1),
		ClosePrice: data.GetClosePrice(),
	}
}

// Kind returns the event kind
func (s *Signal) Kind() common.Kind {
	return common.SignalKind
}

// GetDirection returns the direction of the signal
func (s *Signal) GetDirection() common.Direction {
	return s.Direction
}

// GetStrength returns the optional conviction of the signal
func (s *Signal) GetStrength() decimal.Decimal {
	return s.Strength
}

// GetLimitPrice returns the limit price hint, zero when the strategy wants a
// market order
func (s *Signal) GetLimitPrice() decimal.Decimal {
	return s.LimitPrice
}

// GetClosePrice returns the close price of the bar which triggered the signal
func (s *Signal) GetClosePrice() decimal.Decimal {
	return s.ClosePrice
}
