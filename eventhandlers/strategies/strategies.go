package strategies

import (
	"fmt"
	"strings"

	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/base"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/momentum"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/rsi"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/smacrossover"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/zscore"
)

// LoadStrategyByName returns the strategy by its name with default settings applied
func LoadStrategyByName(name string) (Handler, error) {
	strats := GetStrategies()
	for i := range strats {
		if !strings.EqualFold(name, strats[i].Name()) {
			continue
		}
		strats[i].SetDefaults()
		return strats[i], nil
	}
	return nil, fmt.Errorf("strategy '%v' %w", name, base.ErrStrategyNotFound)
}

// GetStrategies returns a new instance of every supported strategy
func GetStrategies() []Handler {
	return []Handler{
		new(momentum.Strategy),
		new(smacrossover.Strategy),
		new(rsi.Strategy),
		new(zscore.Strategy),
	}
}
