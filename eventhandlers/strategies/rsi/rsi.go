package rsi

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/base"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/signal"
	"github.com/thrasher-corp/gct-ta/indicators"
)

const (
	// Name is the strategy name
	Name         = "rsi"
	rsiPeriodKey = "rsi-period"
	rsiLowKey    = "rsi-low"
	rsiHighKey   = "rsi-high"
	description  = `The relative strength index is a technical indicator used in the analysis of financial markets. It is intended to chart the current and historical strength or weakness of a stock or market based on the closing prices of a recent trading period`
	// the smoothed averages converge long before this many periods
	historyPeriods = 10
)

// Strategy is an implementation of the Handler interface
type Strategy struct {
	rsiPeriod int
	rsiLow    decimal.Decimal
	rsiHigh   decimal.Decimal
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
// be it definition of terms or to highlight its purpose
func (s *Strategy) Description() string {
	return description
}

// OnData handles a data event and returns what action the strategy believes should occur
// For rsi, this means returning a long signal when rsi is at or below a certain level, and an
// exit signal when it is at or above a certain level
func (s *Strategy) OnData(d kline.Event, state base.State) ([]signal.Event, base.State, error) {
	if d == nil {
		return nil, state, common.ErrNilEvent
	}
	history, ok := state.(base.History)
	if state != nil && !ok {
		return nil, state, fmt.Errorf("%w %T", base.ErrUnexpectedState, state)
	}
	instrument := d.GetInstrument()
	history = history.Push(instrument, d.GetClosePrice(), s.rsiPeriod*historyPeriods)
	closes := history.Floats(instrument)
	if len(closes) <= s.rsiPeriod {
		return nil, history, nil
	}

	rsi := indicators.RSI(closes, s.rsiPeriod)
	latestRSIValue := decimal.NewFromFloat(rsi[len(rsi)-1])
	reason := fmt.Sprintf("RSI at %v", latestRSIValue.Round(4))
	switch {
	case latestRSIValue.GreaterThanOrEqual(s.rsiHigh):
		return []signal.Event{signal.New(d, common.Exit, reason)}, history, nil
	case latestRSIValue.LessThanOrEqual(s.rsiLow):
		return []signal.Event{signal.New(d, common.Long, reason)}, history, nil
	}
	return nil, history, nil
}

// SetCustomSettings allows a user to modify the RSI limits in their config
func (s *Strategy) SetCustomSettings(customSettings map[string]any) error {
	for k, v := range customSettings {
		switch k {
		case rsiHighKey:
			rsiHigh, err := base.ParseDecimal(k, v)
			if err != nil {
				return err
			}
			if !rsiHigh.IsPositive() || rsiHigh.GreaterThan(decimal.NewFromInt(100)) {
				return fmt.Errorf("%w provided rsi-high value must be within 0-100: %v", base.ErrInvalidCustomSettings, v)
			}
			s.rsiHigh = rsiHigh
		case rsiLowKey:
			rsiLow, err := base.ParseDecimal(k, v)
			if err != nil {
				return err
			}
			if !rsiLow.IsPositive() || rsiLow.GreaterThan(decimal.NewFromInt(100)) {
				return fmt.Errorf("%w provided rsi-low value must be within 0-100: %v", base.ErrInvalidCustomSettings, v)
			}
			s.rsiLow = rsiLow
		case rsiPeriodKey:
			rsiPeriod, err := base.ParsePositiveInt(k, v)
			if err != nil {
				return err
			}
			s.rsiPeriod = rsiPeriod
		default:
			return fmt.Errorf("%w unrecognised custom setting key %v with value %v. Cannot apply", base.ErrInvalidCustomSettings, k, v)
		}
	}
	if s.rsiLow.GreaterThanOrEqual(s.rsiHigh) {
		return fmt.Errorf("%w rsi-low %v must be below rsi-high %v", base.ErrInvalidCustomSettings, s.rsiLow, s.rsiHigh)
	}
	return nil
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.rsiHigh = decimal.NewFromInt(70)
	s.rsiLow = decimal.NewFromInt(30)
	s.rsiPeriod = 14
}
