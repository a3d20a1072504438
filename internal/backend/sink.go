package backend

import (
	"time"

	"github.com/usbscope/usbscope/internal/core"
)

// Sink receives raw capture events from a device or software source, one call
// per event, and feeds the pipeline. It drops empty events as capture noise,
// applies the suppression predicate, and pushes everything that survives.
// Suppression happens here, before the packet crosses the execution boundary,
// which is what makes it cheap enough for high-rate captures.
type Sink struct {
	backend  *Base
	suppress func(core.Packet) bool
}

// NewSink builds a sink emitting into the given backend. The suppression
// predicate may be nil, meaning never suppress.
func NewSink(b *Base, suppress func(core.Packet) bool) *Sink {
	return &Sink{backend: b, suppress: suppress}
}

// HandleEvent is invoked once per raw capture event.
func (s *Sink) HandleEvent(timestamp time.Time, raw []byte, flags uint32) {
	// Unpopulated events are capture noise; they never reach the channel.
	if len(raw) == 0 {
		return
	}

	p := core.Packet{
		Payload:   raw,
		Timestamp: timestamp,
		Flags:     flags,
	}

	if s.suppress != nil && s.suppress(p) {
		return
	}

	// A push failure here means the run is terminating; the event is
	// deliberately dropped rather than surfaced, the capture loop learns
	// about termination through its halt check.
	_ = s.backend.EmitPacket(p)
}
