package data

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
)

var (
	errOutOfOrder   = errors.New("bars out of order")
	errDuplicateBar = errors.New("duplicate bar")
	errNoBars       = errors.New("no bars loaded")
	errNoLoaders    = errors.New("no loaders provided")
)

// Bar is a single OHLCV tuple as it arrives from a source, before it is
// validated and merged into a stream
type Bar struct {
	Instrument string
	Time       time.Time
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
}

// Loader retrieves bars from a source such as a CSV file or the database
type Loader interface {
	Load(ctx context.Context) ([]Bar, error)
}

// Feed produces market events in time order. It is pulled by the event loop
// and knows nothing of the queue. Next returns false once exhausted
type Feed interface {
	Next() (kline.Event, bool)
}

// Streamer is a feed which retains what it has emitted so far
type Streamer interface {
	Feed
	History() []kline.Event
	Latest() kline.Event
	List() []kline.Event
	Offset() int64
	Len() int
	Reset()
}

// Stream is an in-memory feed of validated bars merged across instruments.
// Bars are ordered by time with ties broken by instrument id
type Stream struct {
	stream []kline.Event
	latest kline.Event
	offset int64
}

// Guard re-verifies the ordering of bars as they are pulled from any feed
type Guard struct {
	last           time.Time
	lastInstrument string
	started        bool
}
