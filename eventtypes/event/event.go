package event

import (
	"strings"
	"time"
)

// NewBase creates the shared event fields. Time is normalised to UTC so
// that identical runs produce identical output
func NewBase(offset int64, t time.Time, instrument string) Base {
	return Base{
		Offset:     offset,
		Time:       t.UTC(),
		Instrument: instrument,
	}
}

// GetOffset returns the offset of the bar which caused the event
func (b *Base) GetOffset() int64 {
	return b.Offset
}

// GetTime returns the time
func (b *Base) GetTime() time.Time {
	return b.Time
}

// GetInstrument returns the instrument the event affects
func (b *Base) GetInstrument() string {
	return b.Instrument
}

// GetReason returns the accumulated reasons for the event
func (b *Base) GetReason() string {
	return b.Reason
}

// WithReason returns a copy of the base with the reason appended. Events
// are built once, so reasons are attached while constructing them
func (b Base) WithReason(reason string) Base {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return b
	}
	if b.Reason == "" {
		b.Reason = reason
		return b
	}
	b.Reason += ". " + reason
	return b
}
