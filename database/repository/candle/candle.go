package candle

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/data/kline/csv"
	"github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/log"
)

// Series returns the candles of an instrument within the inclusive range ordered by time
func Series(ctx context.Context, db *database.Instance, instrument string, interval time.Duration, start, end time.Time) (out Item, err error) {
	if instrument == "" || interval <= 0 || start.IsZero() || end.IsZero() {
		return out, errInvalidInput
	}
	con, err := db.GetSQL()
	if err != nil {
		return out, err
	}
	rows, err := con.QueryContext(ctx, db.Rebind(`SELECT ts, open, high, low, close, volume FROM candle
		WHERE instrument = ? AND interval_secs = ? AND ts >= ? AND ts <= ? ORDER BY ts`),
		instrument, int64(interval.Seconds()), start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return out, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Errorln(log.Database, closeErr)
		}
	}()

	out.Instrument = instrument
	out.Interval = interval
	for rows.Next() {
		var ts int64
		var o, h, l, c, v string
		if err = rows.Scan(&ts, &o, &h, &l, &c, &v); err != nil {
			return out, err
		}
		var cdl Candle
		cdl.Timestamp = time.UnixMilli(ts).UTC()
		if cdl.Open, err = decimal.NewFromString(o); err != nil {
			return out, err
		}
		if cdl.High, err = decimal.NewFromString(h); err != nil {
			return out, err
		}
		if cdl.Low, err = decimal.NewFromString(l); err != nil {
			return out, err
		}
		if cdl.Close, err = decimal.NewFromString(c); err != nil {
			return out, err
		}
		if cdl.Volume, err = decimal.NewFromString(v); err != nil {
			return out, err
		}
		out.Candles = append(out.Candles, cdl)
	}
	if err = rows.Err(); err != nil {
		return out, err
	}
	if len(out.Candles) == 0 {
		return out, fmt.Errorf("%w %v %v %v-%v", ErrNoCandleDataFound, instrument, interval, start, end)
	}
	return out, nil
}

// Insert stores candle data, existing candles for the same instrument,
// interval and time are left untouched. It returns how many rows were written
func Insert(ctx context.Context, db *database.Instance, in *Item) (uint64, error) {
	if in == nil || len(in.Candles) == 0 {
		return 0, errNoCandleData
	}
	if in.Instrument == "" || in.Interval <= 0 {
		return 0, errInvalidInput
	}
	con, err := db.GetSQL()
	if err != nil {
		return 0, err
	}
	tx, err := con.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if errRB := tx.Rollback(); errRB != nil {
				log.Errorf(log.Database, "Insert tx.Rollback %v", errRB)
			}
		}
	}()
	stmt, err := tx.PrepareContext(ctx, db.Rebind(`INSERT INTO candle (instrument, interval_secs, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (instrument, interval_secs, ts) DO NOTHING`))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var total uint64
	for x := range in.Candles {
		c := &in.Candles[x]
		res, errExec := stmt.ExecContext(ctx,
			in.Instrument,
			int64(in.Interval.Seconds()),
			c.Timestamp.UTC().UnixMilli(),
			c.Open.String(),
			c.High.String(),
			c.Low.String(),
			c.Close.String(),
			c.Volume.String())
		if errExec != nil {
			err = errExec
			return 0, err
		}
		affected, errAffected := res.RowsAffected()
		if errAffected != nil {
			err = errAffected
			return 0, err
		}
		total += uint64(affected)
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// InsertFromCSV reads a CSV file of bars and stores them as candles
func InsertFromCSV(ctx context.Context, db *database.Instance, instrument string, interval time.Duration, file string) (uint64, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Errorln(log.Database, closeErr)
		}
	}()
	bars, err := csv.Read(ctx, f, instrument)
	if err != nil {
		return 0, err
	}
	item := &Item{
		Instrument: instrument,
		Interval:   interval,
		Candles:    make([]Candle, len(bars)),
	}
	for i := range bars {
		item.Candles[i] = Candle{
			Timestamp: bars[i].Time,
			Open:      bars[i].Open,
			High:      bars[i].High,
			Low:       bars[i].Low,
			Close:     bars[i].Close,
			Volume:    bars[i].Volume,
		}
	}
	return Insert(ctx, db, item)
}
