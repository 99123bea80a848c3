package size

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/config"
)

var (
	errZeroPrice     = errors.New("cannot size against a zero price")
	errNoFunds       = errors.New("no equity to size against")
	errUnknownMethod = errors.New("unknown sizing method")

	// ErrCannotAllocate is returned when the sized target rounds down to nothing
	ErrCannotAllocate = errors.New("cannot allocate a whole unit")
)

// Size converts a signal into a target position size
type Size struct {
	Method   string
	Quantity decimal.Decimal
	Fraction decimal.Decimal
	Limits   config.MinMax
}
