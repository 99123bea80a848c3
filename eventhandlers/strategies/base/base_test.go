package base

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryPush(t *testing.T) {
	t.Parallel()
	var h History
	h1 := h.Push("A", decimal.NewFromInt(1), 2)
	h2 := h1.Push("A", decimal.NewFromInt(2), 2)
	h3 := h2.Push("A", decimal.NewFromInt(3), 2)
	h4 := h3.Push("B", decimal.NewFromInt(9), 0)

	assert.Len(t, h1["A"], 1, "earlier history should not be modified")
	assert.Len(t, h2["A"], 2)
	require.Len(t, h3["A"], 2)
	assert.True(t, h3["A"][0].Equal(decimal.NewFromInt(2)))
	assert.True(t, h3["A"][1].Equal(decimal.NewFromInt(3)))
	assert.Len(t, h4, 2)
	assert.Equal(t, []float64{2, 3}, h4.Floats("A"))
	assert.Empty(t, h4.Floats("C"))
}

func TestParseDecimal(t *testing.T) {
	t.Parallel()
	for _, v := range []any{float64(2), 2, int64(2), "2", decimal.NewFromInt(2), float32(2)} {
		d, err := ParseDecimal("key", v)
		require.NoErrorf(t, err, "ParseDecimal must not error for %T", v)
		assert.True(t, d.Equal(decimal.NewFromInt(2)))
	}
	_, err := ParseDecimal("key", "two")
	assert.ErrorIs(t, err, ErrInvalidCustomSettings)
	_, err = ParseDecimal("key", []int{2})
	assert.ErrorIs(t, err, ErrInvalidCustomSettings)
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()
	i, err := ParsePositiveInt("window", float64(14))
	require.NoError(t, err, "ParsePositiveInt must not error")
	assert.Equal(t, 14, i)

	_, err = ParsePositiveInt("window", 1.5)
	assert.ErrorIs(t, err, ErrInvalidCustomSettings)
	_, err = ParsePositiveInt("window", 0)
	assert.ErrorIs(t, err, ErrInvalidCustomSettings)
}

func TestParseBool(t *testing.T) {
	t.Parallel()
	b, err := ParseBool("flag", true)
	require.NoError(t, err, "ParseBool must not error")
	assert.True(t, b)
	b, err = ParseBool("flag", "false")
	require.NoError(t, err, "ParseBool must not error")
	assert.False(t, b)
	_, err = ParseBool("flag", 1)
	assert.ErrorIs(t, err, ErrInvalidCustomSettings)
}
