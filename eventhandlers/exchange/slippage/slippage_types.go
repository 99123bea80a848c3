package slippage

import (
	"errors"
	"math/rand"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
)

// Slippage models
const (
	None   = "none"
	Fixed  = "fixed"
	Random = "random"
)

var (
	errInvalidModel  = errors.New("invalid slippage model")
	errNegativeValue = errors.New("slippage basis points cannot be negative")
	errMinAboveMax   = errors.New("minimum basis points above maximum basis points")
	errTooLarge      = errors.New("slippage must be below 10000 basis points")
	errNilRand       = errors.New("random slippage requires a random source")
)

var basisPoints = decimal.NewFromInt(10000)

// Slipper adjusts a price against the side of the trade
type Slipper interface {
	Apply(side common.Side, price decimal.Decimal) decimal.Decimal
}

// Settings configures a slippage model in basis points of price
type Settings struct {
	Model              string          `json:"model" mapstructure:"model"`
	FixedBasisPoints   decimal.Decimal `json:"fixed-basis-points" mapstructure:"fixed-basis-points"`
	MinimumBasisPoints decimal.Decimal `json:"minimum-basis-points" mapstructure:"minimum-basis-points"`
	MaximumBasisPoints decimal.Decimal `json:"maximum-basis-points" mapstructure:"maximum-basis-points"`
}

// Model is the Slipper built from Settings. The random model draws from the
// run's own source so identical seeds produce identical prices
type Model struct {
	model string
	fixed decimal.Decimal
	min   decimal.Decimal
	max   decimal.Decimal
	rand  *rand.Rand
}
