package base

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrStrategyNotFound used when strategy specified in start config does not exist
	ErrStrategyNotFound = errors.New("not found. Please ensure the strategy-settings field 'name' is spelled properly in your config")
	// ErrInvalidCustomSettings used when bad custom settings are found in the start config
	ErrInvalidCustomSettings = errors.New("invalid custom settings in config")
	// ErrUnexpectedState is returned when a strategy is handed state it did not create
	ErrUnexpectedState = errors.New("unexpected strategy state")
)

// State is opaque strategy owned state. The engine stores whatever a
// strategy returns and hands it back on the next call, the strategy value
// itself only holds its validated settings
type State any

// History holds a bounded window of recent values per instrument
type History map[string][]decimal.Decimal
