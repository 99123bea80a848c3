package strategies

import (
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/base"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/signal"
)

// Handler defines all functions required to run strategies against data events.
// OnData receives the state returned by its previous call, nil on the first
// bar, and returns the state to use for the next one. Returning no signals
// during warm-up is expected and is not an error
type Handler interface {
	Name() string
	Description() string
	OnData(kline.Event, base.State) ([]signal.Event, base.State, error)
	SetCustomSettings(map[string]any) error
	SetDefaults()
}
