package smacrossover

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
	Name           = "sma-crossover"
	shortWindowKey = "short-window"
	longWindowKey  = "long-window"
	allowShortKey  = "allow-short"
	description    = `The simple moving average crossover compares a short and a long moving average of closing prices. When the short average crosses above the long average the strategy goes long, when it crosses below the strategy exits or, if allowed, goes short`
)

// relation of the short average to the long average
const (
	below = -1
	above = 1
)

// Strategy is an implementation of the Handler interface
type Strategy struct {
	shortWindow int
	longWindow  int
	allowShort  bool
}

type state struct {
	closes    base.History
	relations map[string]int
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// OnData records the close and signals when the short average crosses the
// long average. Until the long window is full no signal is produced
func (s *Strategy) OnData(d kline.Event, st base.State) ([]signal.Event, base.State, error) {
	if d == nil {
		return nil, st, common.ErrNilEvent
	}
	prev, ok := st.(*state)
	if st != nil && !ok {
		return nil, st, fmt.Errorf("%w %T", base.ErrUnexpectedState, st)
	}
	if prev == nil {
		prev = &state{}
	}
	instrument := d.GetInstrument()
	next := &state{
		closes:    prev.closes.Push(instrument, d.GetClosePrice(), s.longWindow),
		relations: make(map[string]int, len(prev.relations)+1),
	}
	for k, v := range prev.relations {
		next.relations[k] = v
	}
	closes := next.closes.Floats(instrument)
	if len(closes) < s.longWindow {
		return nil, next, nil
	}

	shortSMA := indicators.SMA(closes, s.shortWindow)
	longSMA := indicators.SMA(closes, s.longWindow)
	shortAvg := decimal.NewFromFloat(shortSMA[len(shortSMA)-1])
	longAvg := decimal.NewFromFloat(longSMA[len(longSMA)-1])

	relation, known := prev.relations[instrument]
	switch {
	case shortAvg.GreaterThan(longAvg):
		next.relations[instrument] = above
	case shortAvg.LessThan(longAvg):
		next.relations[instrument] = below
	default:
		// equal averages keep the last relation so a touch is not a cross
		return nil, next, nil
	}
	if !known || relation == next.relations[instrument] {
		return nil, next, nil
	}
	reason := fmt.Sprintf("short SMA %v crossed long SMA %v", shortAvg.Round(8), longAvg.Round(8))
	if next.relations[instrument] == above {
		return []signal.Event{signal.New(d, common.Long, reason)}, next, nil
	}
	direction := common.Exit
	if s.allowShort {
		direction = common.Short
	}
	return []signal.Event{signal.New(d, direction, reason)}, next, nil
}

// SetCustomSettings allows a user to modify the window lengths in their config
func (s *Strategy) SetCustomSettings(customSettings map[string]any) error {
	for k, v := range customSettings {
		switch k {
		case shortWindowKey:
			w, err := base.ParsePositiveInt(k, v)
			if err != nil {
				return err
			}
			s.shortWindow = w
		case longWindowKey:
			w, err := base.ParsePositiveInt(k, v)
			if err != nil {
				return err
			}
			s.longWindow = w
		case allowShortKey:
			b, err := base.ParseBool(k, v)
			if err != nil {
				return err
			}
			s.allowShort = b
		default:
			return fmt.Errorf("%w unrecognised custom setting key %v with value %v. Cannot apply", base.ErrInvalidCustomSettings, k, v)
		}
	}
	if s.shortWindow >= s.longWindow {
		return fmt.Errorf("%w %v %v must be less than %v %v", base.ErrInvalidCustomSettings, shortWindowKey, s.shortWindow, longWindowKey, s.longWindow)
	}
	return nil
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.shortWindow = 5
	s.longWindow = 20
	s.allowShort = false
}
