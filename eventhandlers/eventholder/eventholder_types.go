package eventholder

import "github.com/thrasher-corp/gct-backtester/common"

// Holder contains the event queue for backtester processing. It is a plain
// first in first out queue, events are only ever appended to the back
type Holder struct {
	Queue []common.Event
}

// EventHolder interface details what is expected of an event holder to perform
type EventHolder interface {
	Reset()
	AppendEvent(common.Event)
	NextEvent() common.Event
	Len() int
	Discard() int
}
