package commission

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Commission models
const (
	None       = "none"
	Flat       = "flat"
	PerShare   = "per-share"
	Percentage = "percentage"
)

var (
	errInvalidModel  = errors.New("invalid commission model")
	errNegativeValue = errors.New("commission values cannot be negative")
	errRateTooHigh   = errors.New("commission rate must be below one")
)

// Calculator returns the commission charged for a fill
type Calculator interface {
	Calculate(price, quantity decimal.Decimal) decimal.Decimal
}

// Settings configures a commission model. Rate is a fraction of the fill
// notional so 0.001 charges ten basis points. Minimum applies to the
// per-share and percentage models
type Settings struct {
	Model    string          `json:"model" mapstructure:"model"`
	Flat     decimal.Decimal `json:"flat" mapstructure:"flat"`
	PerShare decimal.Decimal `json:"per-share" mapstructure:"per-share"`
	Rate     decimal.Decimal `json:"rate" mapstructure:"rate"`
	Minimum  decimal.Decimal `json:"minimum" mapstructure:"minimum"`
}

// Fee is the Calculator built from Settings
type Fee struct {
	model    string
	flat     decimal.Decimal
	perShare decimal.Decimal
	rate     decimal.Decimal
	minimum  decimal.Decimal
}
