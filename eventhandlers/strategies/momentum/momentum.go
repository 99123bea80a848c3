package momentum

import (
	"fmt"

	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/base"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/signal"
)

const (
	// Name is the strategy name
	Name          = "momentum"
	exitOnDecline = "exit-on-decline"
	description   = `Momentum goes long whenever an instrument closes higher than its previous close. When exit-on-decline is set, a lower close exits the position`
)

// Strategy is an implementation of the Handler interface
type Strategy struct {
	exitOnDecline bool
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// OnData compares the close of the bar with the previous close of the same
// instrument. The first bar of each instrument only seeds the state
func (s *Strategy) OnData(d kline.Event, state base.State) ([]signal.Event, base.State, error) {
	if d == nil {
		return nil, state, common.ErrNilEvent
	}
	history, ok := state.(base.History)
	if state != nil && !ok {
		return nil, state, fmt.Errorf("%w %T", base.ErrUnexpectedState, state)
	}
	instrument := d.GetInstrument()
	prev := history[instrument]
	next := history.Push(instrument, d.GetClosePrice(), 1)
	if len(prev) == 0 {
		return nil, next, nil
	}

	latest := d.GetClosePrice()
	previous := prev[len(prev)-1]
	switch {
	case latest.GreaterThan(previous):
		return []signal.Event{signal.New(d, common.Long, fmt.Sprintf("close %v rose from %v", latest, previous))}, next, nil
	case s.exitOnDecline && latest.LessThan(previous):
		return []signal.Event{signal.New(d, common.Exit, fmt.Sprintf("close %v fell from %v", latest, previous))}, next, nil
	}
	return nil, next, nil
}

// SetCustomSettings allows a user to modify the exit behaviour in their config
func (s *Strategy) SetCustomSettings(customSettings map[string]any) error {
	for k, v := range customSettings {
		switch k {
		case exitOnDecline:
			b, err := base.ParseBool(k, v)
			if err != nil {
				return err
			}
			s.exitOnDecline = b
		default:
			return fmt.Errorf("%w unrecognised custom setting key %v with value %v. Cannot apply", base.ErrInvalidCustomSettings, k, v)
		}
	}
	return nil
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.exitOnDecline = false
}
