package common

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags which variant of the event union a value belongs to
type Kind string

// Event kinds
const (
	MarketKind Kind = "MARKET"
	SignalKind Kind = "SIGNAL"
	OrderKind  Kind = "ORDER"
	FillKind   Kind = "FILL"
)

// Direction is the intent carried by a signal
type Direction string

// Signal directions
const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
	Exit  Direction = "EXIT"
)

// Side is the side of an order or a fill
type Side string

// Order sides
const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType is how an order is expected to be executed
type OrderType string

// Order types
const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
)

// OrderStatus is the lifecycle state of an order held by the execution simulator
type OrderStatus string

// Order statuses
const (
	Received  OrderStatus = "RECEIVED"
	Filled    OrderStatus = "FILLED"
	Rejected  OrderStatus = "REJECTED"
	Expired   OrderStatus = "EXPIRED"
	Cancelled OrderStatus = "CANCELLED"
)

// RunStatus is the terminal state of a backtesting run
type RunStatus string

// Run statuses
const (
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled"
	StatusFailed    RunStatus = "failed"
)

var (
	// ErrNilArguments is a common error response to highlight that nils were passed in
	// when they should not have been
	ErrNilArguments = errors.New("received nil argument(s)")
	// ErrNilEvent is a common error for whenever a nil event occurs when it shouldn't have
	ErrNilEvent = errors.New("nil event received")
	// ErrNilPointer is returned when a method is called on a nil receiver
	ErrNilPointer = errors.New("nil pointer")
	// ErrConfiguration is returned when a run cannot start because its
	// settings are invalid. It is fatal and raised before the event loop starts
	ErrConfiguration = errors.New("configuration error")
	// ErrDataIntegrity is returned when market data is malformed or out of
	// order. It aborts the run, partial results are retained
	ErrDataIntegrity = errors.New("data integrity error")
	// ErrInvalidDirection is returned for an unrecognised signal direction
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrInvalidSide is returned for an unrecognised order side
	ErrInvalidSide = errors.New("invalid side")
)

// Event is the behaviour shared by every event placed on the queue. Events
// are immutable, this interface only exposes getters
type Event interface {
	Kind() Kind
	GetOffset() int64
	GetTime() time.Time
	GetInstrument() string
	GetReason() string
}

// DataEvent is an event carrying a market bar
type DataEvent interface {
	Event
	GetOpenPrice() decimal.Decimal
	GetHighPrice() decimal.Decimal
	GetLowPrice() decimal.Decimal
	GetClosePrice() decimal.Decimal
	GetVolume() decimal.Decimal
}
