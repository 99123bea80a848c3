package kline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/thrasher-corp/gct-backtester/common"
)

func d(i int64) decimal.Decimal {
	return decimal.NewFromInt(i)
}

func TestGetters(t *testing.T) {
	t.Parallel()
	tt := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	k := New(1, tt, "MSFT", d(10), d(12), d(9), d(11), d(1000))
	assert.Equal(t, common.MarketKind, k.Kind())
	assert.True(t, k.GetOpenPrice().Equal(d(10)))
	assert.True(t, k.GetHighPrice().Equal(d(12)))
	assert.True(t, k.GetLowPrice().Equal(d(9)))
	assert.True(t, k.GetClosePrice().Equal(d(11)))
	assert.True(t, k.GetVolume().Equal(d(1000)))
	assert.Equal(t, "MSFT", k.GetInstrument())
	assert.Equal(t, int64(1), k.GetOffset())
	assert.Equal(t, tt, k.GetTime())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tt := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, ti := range []struct {
		name string
		k    *Kline
		err  error
	}{
		{name: "valid", k: New(0, tt, "A", d(10), d(12), d(9), d(11), d(1))},
		{name: "nil", k: nil, err: common.ErrNilEvent},
		{name: "no instrument", k: New(0, tt, "", d(10), d(12), d(9), d(11), d(1)), err: errMissingField},
		{name: "no time", k: New(0, time.Time{}, "A", d(10), d(12), d(9), d(11), d(1)), err: errMissingField},
		{name: "negative", k: New(0, tt, "A", d(10), d(12), d(9), d(11), d(-1)), err: errNegativeValue},
		{name: "low above high", k: New(0, tt, "A", d(10), d(9), d(12), d(11), d(1)), err: errInvalidRange},
		{name: "close above high", k: New(0, tt, "A", d(10), d(12), d(9), d(13), d(1)), err: errInvalidRange},
		{name: "open below low", k: New(0, tt, "A", d(8), d(12), d(9), d(11), d(1)), err: errInvalidRange},
	} {
		test := ti
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := test.k.Validate()
			if test.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, test.err)
			assert.ErrorIs(t, err, common.ErrDataIntegrity)
		})
	}
}
