package data

import (
	"fmt"

	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
)

// Check returns a data integrity error when the bar would break the merged
// ordering. Time must not decrease and bars sharing a time must be ordered
// by instrument, which also rules out a repeated bar for an instrument
func (g *Guard) Check(k kline.Event) error {
	if k == nil {
		return fmt.Errorf("%w %w", common.ErrDataIntegrity, common.ErrNilEvent)
	}
	if g.started {
		t := k.GetTime()
		switch {
		case t.Before(g.last):
			return fmt.Errorf("%w %w %v bar at %v received after %v", common.ErrDataIntegrity, errOutOfOrder, k.GetInstrument(), t, g.last)
		case t.Equal(g.last) && k.GetInstrument() <= g.lastInstrument:
			return fmt.Errorf("%w %w %v bar at %v received after %v", common.ErrDataIntegrity, errOutOfOrder, k.GetInstrument(), t, g.lastInstrument)
		}
	}
	g.started = true
	g.last = k.GetTime()
	g.lastInstrument = k.GetInstrument()
	return nil
}
