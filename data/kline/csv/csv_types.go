package csv

import (
	"errors"
	"time"
)

var (
	errNoInstrument   = errors.New("instrument not set")
	errNoPath         = errors.New("file path not set")
	errMissingColumn  = errors.New("missing column")
	errInvalidRow     = errors.New("invalid row")
	errInvalidTimeStr = errors.New("unrecognised timestamp")
)

// headerless files follow the candle import layout of
// timestamp,volume,open,high,low,close
const (
	colTime = iota
	colVolume
	colOpen
	colHigh
	colLow
	colClose
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Loader reads the bars of one instrument from a CSV file. Files may carry a
// header naming the date/time, open, high, low, close and volume columns in
// any order, or be headerless in the candle import layout
type Loader struct {
	Instrument string
	Path       string
	Start      time.Time
	End        time.Time
}
