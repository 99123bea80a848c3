package base

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Push returns a copy of the history with the value appended to the
// instrument's window. When limit is positive the window keeps at most limit
// values. The receiver is never modified
func (h History) Push(instrument string, v decimal.Decimal, limit int) History {
	resp := make(History, len(h)+1)
	for k, vals := range h {
		resp[k] = vals
	}
	prev := h[instrument]
	start := 0
	if limit > 0 && len(prev)+1 > limit {
		start = len(prev) + 1 - limit
	}
	window := make([]decimal.Decimal, 0, len(prev)-start+1)
	window = append(window, prev[start:]...)
	resp[instrument] = append(window, v)
	return resp
}

// Floats returns the instrument's window as floats for indicator libraries
func (h History) Floats(instrument string) []float64 {
	vals := h[instrument]
	resp := make([]float64, len(vals))
	for i := range vals {
		resp[i] = vals[i].InexactFloat64()
	}
	return resp
}

// ParseDecimal converts a custom setting value into a decimal. Config files
// decode numbers as float64, int or string depending on their format
func ParseDecimal(key string, v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case float32:
		return decimal.NewFromFloat32(val), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w provided %v value could not be parsed: %v", ErrInvalidCustomSettings, key, v)
		}
		return d, nil
	case decimal.Decimal:
		return val, nil
	default:
		return decimal.Zero, fmt.Errorf("%w provided %v value could not be parsed: %v", ErrInvalidCustomSettings, key, v)
	}
}

// ParsePositiveInt converts a custom setting value into a whole number above zero
func ParsePositiveInt(key string, v any) (int, error) {
	d, err := ParseDecimal(key, v)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() || !d.IsPositive() {
		return 0, fmt.Errorf("%w %v must be a whole number above zero, received %v", ErrInvalidCustomSettings, key, v)
	}
	return int(d.IntPart()), nil
}

// ParseBool converts a custom setting value into a bool
func ParseBool(key string, v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("%w provided %v value could not be parsed: %v", ErrInvalidCustomSettings, key, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w provided %v value could not be parsed: %v", ErrInvalidCustomSettings, key, v)
	}
}
