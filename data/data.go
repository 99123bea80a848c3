package data

import (
	"context"
	"fmt"
	"sort"

	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
)

// NewStream validates and merges bars into a stream. Every bar must be well
// formed and each instrument's bars must arrive strictly increasing in time,
// anything else is a data integrity error. Bars of different instruments may
// be interleaved in any way
func NewStream(bars []Bar) (*Stream, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w %w", common.ErrDataIntegrity, errNoBars)
	}
	klines := make([]*kline.Kline, len(bars))
	last := make(map[string]int)
	for i := range bars {
		k := kline.New(0, bars[i].Time, bars[i].Instrument, bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close, bars[i].Volume)
		if err := k.Validate(); err != nil {
			return nil, err
		}
		if prev, ok := last[k.Instrument]; ok {
			prevTime := klines[prev].Time
			switch {
			case prevTime.Equal(k.Time):
				return nil, fmt.Errorf("%w %w %v at %v", common.ErrDataIntegrity, errDuplicateBar, k.Instrument, k.Time)
			case prevTime.After(k.Time):
				return nil, fmt.Errorf("%w %w %v bar at %v follows %v", common.ErrDataIntegrity, errOutOfOrder, k.Instrument, k.Time, prevTime)
			}
		}
		last[k.Instrument] = i
		klines[i] = k
	}
	sort.SliceStable(klines, func(i, j int) bool {
		if klines[i].Time.Equal(klines[j].Time) {
			return klines[i].Instrument < klines[j].Instrument
		}
		return klines[i].Time.Before(klines[j].Time)
	})
	s := &Stream{stream: make([]kline.Event, len(klines))}
	for i := range klines {
		klines[i].Offset = int64(i + 1)
		s.stream[i] = klines[i]
	}
	return s, nil
}

// Load runs every loader and merges their bars into a single stream
func Load(ctx context.Context, loaders ...Loader) (*Stream, error) {
	if len(loaders) == 0 {
		return nil, errNoLoaders
	}
	var bars []Bar
	for i := range loaders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := loaders[i].Load(ctx)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b...)
	}
	return NewStream(bars)
}

// Reset rewinds the stream to its first bar
func (s *Stream) Reset() {
	s.latest = nil
	s.offset = 0
}

// Next will return the next event in the list and also shift the offset one
func (s *Stream) Next() (kline.Event, bool) {
	if int64(len(s.stream)) <= s.offset {
		return nil, false
	}
	ret := s.stream[s.offset]
	s.offset++
	s.latest = ret
	return ret, true
}

// History will return all previous data events that have happened
func (s *Stream) History() []kline.Event {
	return s.stream[:s.offset]
}

// Latest will return latest data event
func (s *Stream) Latest() kline.Event {
	return s.latest
}

// List returns all future data events from the current iteration
// ill-advised to use this in strategies because you don't know the future in real life
func (s *Stream) List() []kline.Event {
	return s.stream[s.offset:]
}

// Offset returns how many bars have been emitted
func (s *Stream) Offset() int64 {
	return s.offset
}

// Len returns the total number of bars in the stream
func (s *Stream) Len() int {
	return len(s.stream)
}

// Instruments returns the sorted set of instruments in the stream
func (s *Stream) Instruments() []string {
	seen := make(map[string]struct{})
	var resp []string
	for i := range s.stream {
		if _, ok := seen[s.stream[i].GetInstrument()]; ok {
			continue
		}
		seen[s.stream[i].GetInstrument()] = struct{}{}
		resp = append(resp, s.stream[i].GetInstrument())
	}
	sort.Strings(resp)
	return resp
}
