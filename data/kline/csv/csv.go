package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/data"
	"github.com/thrasher-corp/gct-backtester/log"
)

// Load opens the file and parses every row within the date range
func (l *Loader) Load(ctx context.Context) (resp []data.Bar, err error) {
	if l.Path == "" {
		return nil, errNoPath
	}
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Errorln(log.Data, closeErr)
		}
	}()
	resp, err = Read(ctx, f, l.Instrument)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", l.Path, err)
	}
	resp = filterRange(resp, l.Start, l.End)
	log.Debugf(log.Data, "loaded %d bars for %v from %v", len(resp), l.Instrument, l.Path)
	return resp, nil
}

// Read parses CSV rows into bars for the instrument. Rows that cannot be
// parsed are a data integrity error
func Read(ctx context.Context, r io.Reader, instrument string) ([]data.Bar, error) {
	if instrument == "" {
		return nil, errNoInstrument
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	columns := []int{colTime, colVolume, colOpen, colHigh, colLow, colClose}
	var resp []data.Bar
	for row := 0; ; row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w %w", common.ErrDataIntegrity, err)
		}
		if row == 0 && isHeader(record) {
			columns, err = mapHeader(record)
			if err != nil {
				return nil, err
			}
			continue
		}
		b, err := parseRecord(record, columns, instrument)
		if err != nil {
			return nil, fmt.Errorf("%w %w on row %d", common.ErrDataIntegrity, err, row+1)
		}
		resp = append(resp, b)
	}
	return resp, nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := parseTime(record[0])
	return err != nil
}

func mapHeader(record []string) ([]int, error) {
	columns := []int{-1, -1, -1, -1, -1, -1}
	for i := range record {
		switch strings.ToLower(strings.TrimSpace(record[i])) {
		case "date", "time", "timestamp", "datetime":
			columns[colTime] = i
		case "volume", "vol":
			columns[colVolume] = i
		case "open":
			columns[colOpen] = i
		case "high":
			columns[colHigh] = i
		case "low":
			columns[colLow] = i
		case "close":
			columns[colClose] = i
		}
	}
	names := []string{"time", "volume", "open", "high", "low", "close"}
	for i := range columns {
		if columns[i] == -1 {
			return nil, fmt.Errorf("%w %w %v", common.ErrDataIntegrity, errMissingColumn, names[i])
		}
	}
	return columns, nil
}

func parseRecord(record []string, columns []int, instrument string) (data.Bar, error) {
	for i := range columns {
		if columns[i] >= len(record) {
			return data.Bar{}, fmt.Errorf("%w expected at least %d fields, received %d", errInvalidRow, columns[i]+1, len(record))
		}
	}
	ts, err := parseTime(record[columns[colTime]])
	if err != nil {
		return data.Bar{}, err
	}
	values := make([]decimal.Decimal, len(columns))
	for i := colVolume; i <= colClose; i++ {
		values[i], err = decimal.NewFromString(strings.TrimSpace(record[columns[i]]))
		if err != nil {
			return data.Bar{}, fmt.Errorf("%w %v", errInvalidRow, err)
		}
	}
	return data.Bar{
		Instrument: instrument,
		Time:       ts,
		Open:       values[colOpen],
		High:       values[colHigh],
		Low:        values[colLow],
		Close:      values[colClose],
		Volume:     values[colVolume],
	}, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	for i := range timeLayouts {
		if t, err := time.Parse(timeLayouts[i], s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w '%v'", errInvalidTimeStr, s)
}

func filterRange(bars []data.Bar, start, end time.Time) []data.Bar {
	if start.IsZero() && end.IsZero() {
		return bars
	}
	resp := bars[:0]
	for i := range bars {
		if !start.IsZero() && bars[i].Time.Before(start) {
			continue
		}
		if !end.IsZero() && bars[i].Time.After(end) {
			continue
		}
		resp = append(resp, bars[i])
	}
	return resp
}
