package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Sign returns the signed multiplier applied to quantities and cash flows
// for the side, BUY is positive and SELL is negative
func (s Side) Sign() decimal.Decimal {
	if s == Sell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Validate ensures the side is one of BUY or SELL
func (s Side) Validate() error {
	switch s {
	case Buy, Sell:
		return nil
	default:
		return fmt.Errorf("%w '%v'", ErrInvalidSide, s)
	}
}

// Validate ensures the direction is one of LONG, SHORT or EXIT
func (d Direction) Validate() error {
	switch d {
	case Long, Short, Exit:
		return nil
	default:
		return fmt.Errorf("%w '%v'", ErrInvalidDirection, d)
	}
}

// ParseOrderType converts a config string into an OrderType
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToUpper(s)) {
	case Market, "":
		return Market, nil
	case Limit:
		return Limit, nil
	default:
		return "", fmt.Errorf("%w unrecognised order type '%v'", ErrConfiguration, s)
	}
}

// SideFromQuantity returns the side required to move a position by the signed
// quantity along with the absolute amount
func SideFromQuantity(delta decimal.Decimal) (Side, decimal.Decimal) {
	if delta.IsNegative() {
		return Sell, delta.Abs()
	}
	return Buy, delta
}

// FitStringToLimit ensures a string is of the length of the limit
// either by truncating the string with ellipses or padding with the spacer
func FitStringToLimit(str, spacer string, limit int, upper bool) string {
	if limit < 0 {
		return str
	}
	if limit == 0 {
		return ""
	}
	limResp := limit - len(str)
	if upper {
		str = strings.ToUpper(str)
	}
	if limResp < 0 {
		if limit-3 > 0 {
			return str[0:limit-3] + "..."
		}
		return str[0:limit]
	}
	spacerLen := len(spacer)
	for i := 0; i < limResp; i++ {
		str += spacer
		for j := 0; j < spacerLen; j++ {
			if j > 0 {
				// prevent clever people from going beyond
				// the limit by having a spacer longer than 1
				i++
			}
		}
	}
	return str[0:limit]
}
