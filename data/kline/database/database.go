package database

import (
	"context"
	"errors"
	"time"

	"github.com/thrasher-corp/gct-backtester/data"
	gctdb "github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/database/repository/candle"
	"github.com/thrasher-corp/gct-backtester/log"
)

var errNilDatabase = errors.New("nil database instance")

// Loader retrieves the candles of one instrument from the database
type Loader struct {
	DB         *gctdb.Instance
	Instrument string
	Interval   time.Duration
	Start      time.Time
	End        time.Time
}

// Load returns the stored candles as bars
func (l *Loader) Load(ctx context.Context) ([]data.Bar, error) {
	if l.DB == nil {
		return nil, errNilDatabase
	}
	item, err := candle.Series(ctx, l.DB, l.Instrument, l.Interval, l.Start, l.End)
	if err != nil {
		return nil, err
	}
	resp := make([]data.Bar, len(item.Candles))
	for i := range item.Candles {
		resp[i] = data.Bar{
			Instrument: l.Instrument,
			Time:       item.Candles[i].Timestamp,
			Open:       item.Candles[i].Open,
			High:       item.Candles[i].High,
			Low:        item.Candles[i].Low,
			Close:      item.Candles[i].Close,
			Volume:     item.Candles[i].Volume,
		}
	}
	log.Debugf(log.Data, "loaded %d bars for %v from the database", len(resp), l.Instrument)
	return resp, nil
}
