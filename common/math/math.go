package math

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	errZeroValue       = errors.New("cannot calculate average of no values")
	errInsufficientLen = errors.New("insufficient values to calculate")
	// ErrZeroDeviation is returned when a calculation would divide by a standard deviation of zero
	ErrZeroDeviation = errors.New("standard deviation is zero")
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// PercentageChange returns the percentage difference between two values
// where the result is relative to the first value
func PercentageChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(decimal.NewFromInt(100))
}

// ArithmeticAverage is the basic form of calculating an average.
// Divide the sum of all values by the length of values
func ArithmeticAverage(values []decimal.Decimal) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Zero, errZeroValue
	}
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values)))), nil
}

// PopulationStandardDeviation calculates standard deviation using population based calculation
func PopulationStandardDeviation(values []decimal.Decimal) (decimal.Decimal, error) {
	return standardDeviation(values, 0)
}

// SampleStandardDeviation standard deviation is a statistic that
// measures the dispersion of a dataset relative to its mean and
// is calculated as the square root of the variance
func SampleStandardDeviation(values []decimal.Decimal) (decimal.Decimal, error) {
	if len(values) <= 1 {
		return decimal.Zero, fmt.Errorf("%w received %v, need more than 1", errInsufficientLen, len(values))
	}
	return standardDeviation(values, 1)
}

func standardDeviation(values []decimal.Decimal, degreesOfFreedom int64) (decimal.Decimal, error) {
	mean, err := ArithmeticAverage(values)
	if err != nil {
		return decimal.Zero, err
	}
	combined := decimal.Zero
	for i := range values {
		combined = combined.Add(values[i].Sub(mean).Pow(two))
	}
	variance := combined.Div(decimal.NewFromInt(int64(len(values)) - degreesOfFreedom))
	return decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())), nil
}

// ZScore returns how many population standard deviations the value sits from
// the mean of the window
func ZScore(value decimal.Decimal, window []decimal.Decimal) (decimal.Decimal, error) {
	mean, err := ArithmeticAverage(window)
	if err != nil {
		return decimal.Zero, err
	}
	stdDev, err := PopulationStandardDeviation(window)
	if err != nil {
		return decimal.Zero, err
	}
	if stdDev.IsZero() {
		return decimal.Zero, ErrZeroDeviation
	}
	return value.Sub(mean).Div(stdDev), nil
}

// SharpeRatio returns the sharpe ratio of per period returns compared to a
// per period risk-free rate
func SharpeRatio(returns []decimal.Decimal, riskFreeRate decimal.Decimal) (decimal.Decimal, error) {
	if len(returns) <= 1 {
		return decimal.Zero, fmt.Errorf("%w received %v, need more than 1", errInsufficientLen, len(returns))
	}
	excess := make([]decimal.Decimal, len(returns))
	for i := range returns {
		excess[i] = returns[i].Sub(riskFreeRate)
	}
	stdDev, err := SampleStandardDeviation(excess)
	if err != nil {
		return decimal.Zero, err
	}
	if stdDev.IsZero() {
		return decimal.Zero, ErrZeroDeviation
	}
	avg, err := ArithmeticAverage(excess)
	if err != nil {
		return decimal.Zero, err
	}
	return avg.Div(stdDev), nil
}

// MaxDrawdown walks a value series and returns the largest peak to trough
// decline as a fraction of the peak along with the indexes of both ends
func MaxDrawdown(values []decimal.Decimal) (drawdown decimal.Decimal, peak, trough int) {
	if len(values) == 0 {
		return decimal.Zero, 0, 0
	}
	highest := 0
	for i := range values {
		if values[i].GreaterThan(values[highest]) {
			highest = i
		}
		if values[highest].IsZero() {
			continue
		}
		current := one.Sub(values[i].Div(values[highest]))
		if current.GreaterThan(drawdown) {
			drawdown = current
			peak = highest
			trough = i
		}
	}
	return drawdown, peak, trough
}

// CompoundAnnualGrowthRate returns the CAGR of a value series expressed as a percentage
func CompoundAnnualGrowthRate(openValue, closeValue, intervalsPerYear, numberOfIntervals decimal.Decimal) (decimal.Decimal, error) {
	if openValue.IsZero() || numberOfIntervals.IsZero() {
		return decimal.Zero, errZeroValue
	}
	k := math.Pow(closeValue.Div(openValue).InexactFloat64(), intervalsPerYear.Div(numberOfIntervals).InexactFloat64()) - 1
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return decimal.Zero, fmt.Errorf("%w cannot compute growth rate", errInsufficientLen)
	}
	return decimal.NewFromFloat(k).Mul(decimal.NewFromInt(100)), nil
}
