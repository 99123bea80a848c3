package event

import (
	"time"
)

// Base is the foundation of all events. It holds the data shared by every
// event type, the offset of the bar which caused it, the time the event
// belongs to and the instrument it affects
type Base struct {
	Offset     int64     `json:"-"`
	Time       time.Time `json:"timestamp"`
	Instrument string    `json:"instrument"`
	Reason     string    `json:"reason,omitempty"`
}
