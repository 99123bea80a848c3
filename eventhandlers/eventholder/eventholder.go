package eventholder

import "github.com/thrasher-corp/gct-backtester/common"

// Reset returns struct to defaults
func (h *Holder) Reset() {
	h.Queue = nil
}

// AppendEvent adds an event to the back of the queue
func (h *Holder) AppendEvent(i common.Event) {
	if i == nil {
		return
	}
	h.Queue = append(h.Queue, i)
}

// NextEvent removes and returns the event at the front of the queue, nil
// when the queue is empty
func (h *Holder) NextEvent() common.Event {
	if len(h.Queue) == 0 {
		return nil
	}
	i := h.Queue[0]
	h.Queue[0] = nil
	h.Queue = h.Queue[1:]
	return i
}

// Len returns the number of queued events
func (h *Holder) Len() int {
	return len(h.Queue)
}

// Discard empties the queue and returns how many events were dropped
func (h *Holder) Discard() int {
	n := len(h.Queue)
	h.Reset()
	return n
}
