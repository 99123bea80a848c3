package signal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
)

func TestNew(t *testing.T) {
	t.Parallel()
	tt := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	k := kline.New(4, tt, "AAPL", decimal.NewFromInt(1), decimal.NewFromInt(3), decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(1))
	s := New(k, common.Long, "close rose")
	assert.Equal(t, common.SignalKind, s.Kind())
	assert.Equal(t, common.Long, s.GetDirection())
	assert.Equal(t, int64(4), s.GetOffset())
	assert.Equal(t, tt, s.GetTime())
	assert.Equal(t, "AAPL", s.GetInstrument())
	assert.Equal(t, "close rose", s.GetReason())
	assert.True(t, s.GetClosePrice().Equal(decimal.NewFromInt(2)))
	assert.True(t, s.GetStrength().Equal(decimal.NewFromInt(1)))
	assert.True(t, s.GetLimitPrice().IsZero())

	var _ Event = s
}
