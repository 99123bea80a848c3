package zscore

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	gctmath "github.com/thrasher-corp/gct-backtester/common/math"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/base"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/signal"
)

const (
	// Name is the strategy name
	Name              = "zscore"
	lookbackWindowKey = "lookback-window"
	entryThresholdKey = "entry-threshold"
	exitThresholdKey  = "exit-threshold"
	description       = `Z-score mean reversion measures how many standard deviations the close sits from its rolling mean. Far below the mean it goes long, far above it goes short and close to the mean it exits`
)

// Strategy is an implementation of the Handler interface
type Strategy struct {
	lookbackWindow int
	entryThreshold decimal.Decimal
	exitThreshold  decimal.Decimal
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// OnData scores the close against the rolling window which includes it
func (s *Strategy) OnData(d kline.Event, state base.State) ([]signal.Event, base.State, error) {
	if d == nil {
		return nil, state, common.ErrNilEvent
	}
	history, ok := state.(base.History)
	if state != nil && !ok {
		return nil, state, fmt.Errorf("%w %T", base.ErrUnexpectedState, state)
	}
	instrument := d.GetInstrument()
	history = history.Push(instrument, d.GetClosePrice(), s.lookbackWindow)
	window := history[instrument]
	if len(window) < s.lookbackWindow {
		return nil, history, nil
	}
	z, err := gctmath.ZScore(d.GetClosePrice(), window)
	if err != nil {
		if errors.Is(err, gctmath.ErrZeroDeviation) {
			return nil, history, nil
		}
		return nil, history, err
	}
	reason := fmt.Sprintf("z-score %v", z.Round(4))
	switch {
	case z.LessThanOrEqual(s.entryThreshold.Neg()):
		return []signal.Event{signal.New(d, common.Long, reason)}, history, nil
	case z.GreaterThanOrEqual(s.entryThreshold):
		return []signal.Event{signal.New(d, common.Short, reason)}, history, nil
	case z.Abs().LessThanOrEqual(s.exitThreshold):
		return []signal.Event{signal.New(d, common.Exit, reason)}, history, nil
	}
	return nil, history, nil
}

// SetCustomSettings allows a user to modify the window and thresholds in their config
func (s *Strategy) SetCustomSettings(customSettings map[string]any) error {
	for k, v := range customSettings {
		switch k {
		case lookbackWindowKey:
			w, err := base.ParsePositiveInt(k, v)
			if err != nil {
				return err
			}
			if w < 2 {
				return fmt.Errorf("%w %v must be at least 2", base.ErrInvalidCustomSettings, k)
			}
			s.lookbackWindow = w
		case entryThresholdKey:
			t, err := base.ParseDecimal(k, v)
			if err != nil {
				return err
			}
			s.entryThreshold = t
		case exitThresholdKey:
			t, err := base.ParseDecimal(k, v)
			if err != nil {
				return err
			}
			s.exitThreshold = t
		default:
			return fmt.Errorf("%w unrecognised custom setting key %v with value %v. Cannot apply", base.ErrInvalidCustomSettings, k, v)
		}
	}
	if !s.entryThreshold.IsPositive() || s.exitThreshold.IsNegative() || s.exitThreshold.GreaterThanOrEqual(s.entryThreshold) {
		return fmt.Errorf("%w thresholds require 0 <= %v < %v, received %v and %v", base.ErrInvalidCustomSettings, exitThresholdKey, entryThresholdKey, s.exitThreshold, s.entryThreshold)
	}
	return nil
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.lookbackWindow = 20
	s.entryThreshold = decimal.NewFromInt(2)
	s.exitThreshold = decimal.NewFromFloat(0.5)
}
