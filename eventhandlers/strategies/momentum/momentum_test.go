package momentum

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/base"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
)

func bar(instrument string, offset int64, closePrice int64) *kline.Kline {
	c := decimal.NewFromInt(closePrice)
	return kline.New(offset, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(offset)), instrument, c, c, c, c, decimal.Zero)
}

func TestOnData(t *testing.T) {
	t.Parallel()
	s := &Strategy{}
	s.SetDefaults()
	assert.Equal(t, Name, s.Name())
	assert.NotEmpty(t, s.Description())

	signals, state, err := s.OnData(bar("A", 1, 100), nil)
	require.NoError(t, err, "OnData must not error")
	assert.Empty(t, signals, "first bar should only seed state")

	signals, state, err = s.OnData(bar("A", 2, 105), state)
	require.NoError(t, err, "OnData must not error")
	require.Len(t, signals, 1)
	assert.Equal(t, common.Long, signals[0].GetDirection())
	assert.True(t, signals[0].GetClosePrice().Equal(decimal.NewFromInt(105)))

	signals, state, err = s.OnData(bar("B", 3, 1), state)
	require.NoError(t, err, "OnData must not error")
	assert.Empty(t, signals, "instruments should be tracked separately")

	signals, _, err = s.OnData(bar("A", 4, 103), state)
	require.NoError(t, err, "OnData must not error")
	assert.Empty(t, signals, "a decline should not exit by default")
}

func TestOnDataExitOnDecline(t *testing.T) {
	t.Parallel()
	s := &Strategy{}
	require.NoError(t, s.SetCustomSettings(map[string]any{exitOnDecline: true}), "SetCustomSettings must not error")
	_, state, err := s.OnData(bar("A", 1, 100), nil)
	require.NoError(t, err, "OnData must not error")
	signals, _, err := s.OnData(bar("A", 2, 90), state)
	require.NoError(t, err, "OnData must not error")
	require.Len(t, signals, 1)
	assert.Equal(t, common.Exit, signals[0].GetDirection())
}

func TestOnDataErrors(t *testing.T) {
	t.Parallel()
	s := &Strategy{}
	_, _, err := s.OnData(nil, nil)
	assert.ErrorIs(t, err, common.ErrNilEvent)
	_, _, err = s.OnData(bar("A", 1, 1), "not history")
	assert.ErrorIs(t, err, base.ErrUnexpectedState)
}

func TestSetCustomSettings(t *testing.T) {
	t.Parallel()
	s := &Strategy{}
	assert.ErrorIs(t, s.SetCustomSettings(map[string]any{"window": 1}), base.ErrInvalidCustomSettings)
	assert.ErrorIs(t, s.SetCustomSettings(map[string]any{exitOnDecline: 7}), base.ErrInvalidCustomSettings)
}
