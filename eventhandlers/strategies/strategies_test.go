package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/base"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/rsi"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/smacrossover"
)

func TestGetStrategies(t *testing.T) {
	t.Parallel()
	resp := GetStrategies()
	require.Len(t, resp, 4)
	seen := make(map[string]bool)
	for i := range resp {
		assert.NotEmpty(t, resp[i].Description())
		assert.False(t, seen[resp[i].Name()], "strategy names should be unique")
		seen[resp[i].Name()] = true
	}
}

func TestLoadStrategyByName(t *testing.T) {
	t.Parallel()
	_, err := LoadStrategyByName("buy-high-sell-low")
	assert.ErrorIs(t, err, base.ErrStrategyNotFound)

	s, err := LoadStrategyByName("RSI")
	require.NoError(t, err, "LoadStrategyByName must not error")
	assert.Equal(t, rsi.Name, s.Name())

	s, err = LoadStrategyByName(smacrossover.Name)
	require.NoError(t, err, "LoadStrategyByName must not error")
	assert.NoError(t, s.SetCustomSettings(nil), "defaults should be applied and valid")
}
