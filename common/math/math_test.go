package math

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decs(vals ...int64) []decimal.Decimal {
	resp := make([]decimal.Decimal, len(vals))
	for i := range vals {
		resp[i] = decimal.NewFromInt(vals[i])
	}
	return resp
}

func TestPercentageChange(t *testing.T) {
	t.Parallel()
	assert.True(t, PercentageChange(decimal.NewFromInt(100), decimal.NewFromInt(110)).Equal(decimal.NewFromInt(10)))
	assert.True(t, PercentageChange(decimal.Zero, decimal.NewFromInt(110)).IsZero())
}

func TestArithmeticAverage(t *testing.T) {
	t.Parallel()
	_, err := ArithmeticAverage(nil)
	assert.ErrorIs(t, err, errZeroValue)

	avg, err := ArithmeticAverage(decs(2, 4, 6))
	require.NoError(t, err, "ArithmeticAverage must not error")
	assert.True(t, avg.Equal(decimal.NewFromInt(4)))
}

func TestStandardDeviation(t *testing.T) {
	t.Parallel()
	values := decs(2, 4, 4, 4, 5, 5, 7, 9)
	pop, err := PopulationStandardDeviation(values)
	require.NoError(t, err, "PopulationStandardDeviation must not error")
	assert.True(t, pop.Equal(decimal.NewFromInt(2)), "population deviation should be 2, received %v", pop)

	_, err = SampleStandardDeviation(decs(1))
	assert.ErrorIs(t, err, errInsufficientLen)

	sample, err := SampleStandardDeviation(decs(1, 3))
	require.NoError(t, err, "SampleStandardDeviation must not error")
	assert.Equal(t, "1.4142135623730951", sample.String())
}

func TestZScore(t *testing.T) {
	t.Parallel()
	z, err := ZScore(decimal.NewFromInt(9), decs(2, 4, 4, 4, 5, 5, 7, 9))
	require.NoError(t, err, "ZScore must not error")
	assert.True(t, z.Equal(decimal.NewFromInt(2)), "received %v", z)

	_, err = ZScore(decimal.NewFromInt(1), decs(3, 3, 3))
	assert.ErrorIs(t, err, ErrZeroDeviation)
}

func TestSharpeRatio(t *testing.T) {
	t.Parallel()
	_, err := SharpeRatio(decs(1), decimal.Zero)
	assert.ErrorIs(t, err, errInsufficientLen)

	_, err = SharpeRatio(decs(1, 1, 1), decimal.Zero)
	assert.ErrorIs(t, err, ErrZeroDeviation)

	ratio, err := SharpeRatio(decs(1, 3), decimal.Zero)
	require.NoError(t, err, "SharpeRatio must not error")
	assert.True(t, ratio.GreaterThan(decimal.NewFromInt(1)))
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()
	dd, peak, trough := MaxDrawdown(decs(100, 120, 90, 110, 60, 130))
	assert.True(t, dd.Equal(decimal.NewFromFloat(0.5)), "received %v", dd)
	assert.Equal(t, 1, peak)
	assert.Equal(t, 4, trough)

	dd, _, _ = MaxDrawdown(decs(1, 2, 3))
	assert.True(t, dd.IsZero())

	dd, _, _ = MaxDrawdown(nil)
	assert.True(t, dd.IsZero())
}

func TestCompoundAnnualGrowthRate(t *testing.T) {
	t.Parallel()
	_, err := CompoundAnnualGrowthRate(decimal.Zero, decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, errZeroValue)

	cagr, err := CompoundAnnualGrowthRate(decimal.NewFromInt(100), decimal.NewFromInt(121), decimal.NewFromInt(1), decimal.NewFromInt(2))
	require.NoError(t, err, "CompoundAnnualGrowthRate must not error")
	assert.True(t, cagr.Round(4).Equal(decimal.NewFromInt(10)), "received %v", cagr)
}
