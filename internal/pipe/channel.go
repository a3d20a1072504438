package pipe

import (
	"time"

	"github.com/usbscope/usbscope/internal/core"
)

// Channel is a bounded FIFO queue of packets crossing the execution-context
// boundary between one producer (the capture backend) and one consumer (the
// display frontend). The bound caps memory use under backpressure: a full
// channel blocks the producer rather than growing without limit.
type Channel struct {
	items chan core.Packet
	token *Token
}

// NewChannel creates a channel bound to capacity items, tied to the given
// termination token so a blocked Push cannot outlive the run.
func NewChannel(capacity int, token *Token) *Channel {
	if capacity <= 0 {
		capacity = 1
	}
	return &Channel{
		items: make(chan core.Packet, capacity),
		token: token,
	}
}

// Push appends a packet, blocking while the channel is full. Once the
// termination token trips, a blocked Push returns core.ErrTerminated promptly
// instead of deadlocking the producer.
func (c *Channel) Push(p core.Packet) error {
	if c.token.Tripped() {
		return core.ErrTerminated
	}
	select {
	case c.items <- p:
		return nil
	case <-c.token.Done():
		return core.ErrTerminated
	}
}

// TryPop waits up to timeout for a packet. The second return value is false
// when nothing arrived in time; the consumer treats that as "empty", not as
// an error, so its event loop stays responsive.
func (c *Channel) TryPop(timeout time.Duration) (core.Packet, bool) {
	select {
	case p := <-c.items:
		return p, true
	default:
	}
	if timeout <= 0 {
		return core.Packet{}, false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case p := <-c.items:
		return p, true
	case <-timer.C:
		return core.Packet{}, false
	}
}

// Len reports the number of packets currently queued.
func (c *Channel) Len() int {
	return len(c.items)
}

// Cap reports the channel capacity.
func (c *Channel) Cap() int {
	return cap(c.items)
}
