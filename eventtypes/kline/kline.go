package kline

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
)

// New creates a market event from a bar
func New(offset int64, t time.Time, instrument string, open, high, low, closePrice, volume decimal.Decimal) *Kline {
	return &Kline{
		Base:   event.NewBase(offset, t, instrument),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
}

// Kind returns the event kind
func (k *Kline) Kind() common.Kind {
	return common.MarketKind
}

// GetClosePrice returns the closing price of a kline
func (k *Kline) GetClosePrice() decimal.Decimal {
	return k.Close
}

// GetHighPrice returns the high price of a kline
func (k *Kline) GetHighPrice() decimal.Decimal {
	return k.High
}

// GetLowPrice returns the low price of a kline
func (k *Kline) GetLowPrice() decimal.Decimal {
	return k.Low
}

// GetOpenPrice returns the open price of a kline
func (k *Kline) GetOpenPrice() decimal.Decimal {
	return k.Open
}

// GetVolume returns the volume of a kline
func (k *Kline) GetVolume() decimal.Decimal {
	return k.Volume
}

// Validate checks the bar is internally consistent. Any failure is a data
// integrity error
func (k *Kline) Validate() error {
	if k == nil {
		return fmt.Errorf("%w %w", common.ErrDataIntegrity, common.ErrNilEvent)
	}
	if k.Instrument == "" {
		return fmt.Errorf("%w %w instrument", common.ErrDataIntegrity, errMissingField)
	}
	if k.Time.IsZero() {
		return fmt.Errorf("%w %w time for %v", common.ErrDataIntegrity, errMissingField, k.Instrument)
	}
	for _, v := range []decimal.Decimal{k.Open, k.High, k.Low, k.Close, k.Volume} {
		if v.IsNegative() {
			return fmt.Errorf("%w %w %v %v at %v", common.ErrDataIntegrity, errNegativeValue, v, k.Instrument, k.Time)
		}
	}
	if k.Low.GreaterThan(k.High) {
		return fmt.Errorf("%w %w low %v above high %v for %v at %v", common.ErrDataIntegrity, errInvalidRange, k.Low, k.High, k.Instrument, k.Time)
	}
	for _, v := range []decimal.Decimal{k.Open, k.Close} {
		if v.LessThan(k.Low) || v.GreaterThan(k.High) {
			return fmt.Errorf("%w %w %v not within %v-%v for %v at %v", common.ErrDataIntegrity, errInvalidRange, v, k.Low, k.High, k.Instrument, k.Time)
		}
	}
	return nil
}
