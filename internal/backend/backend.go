// Package backend implements the capture-backend role: shared wiring for
// concrete capture sources, plus the event sink that converts raw capture
// events into pipeline packets.
package backend

import (
	"sync/atomic"

	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/pipe"
)

// State tracks a backend instance through its lifecycle. Closed is terminal
// and is always reached, regardless of which path led to Stopping.
type State int32

const (
	StateConstructed State = iota
	StateOpened
	StateCapturing
	StateStopping
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateOpened:
		return "opened"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Base carries the pipeline wiring every concrete backend embeds: the shared
// channel and termination token, the suppression predicate, and the lifecycle
// state. Everything else a backend holds is private to its execution context.
type Base struct {
	ch       *pipe.Channel
	tok      *pipe.Token
	suppress func(core.Packet) bool
	state    atomic.Int32
}

// Attach wires the shared IPC primitives. Must be called before Run.
func (b *Base) Attach(ch *pipe.Channel, tok *pipe.Token) {
	b.ch = ch
	b.tok = tok
}

// SetSuppression installs the caller-supplied packet suppression predicate.
func (b *Base) SetSuppression(fn func(core.Packet) bool) {
	b.suppress = fn
}

// Suppression returns the installed predicate, nil when none.
func (b *Base) Suppression() func(core.Packet) bool {
	return b.suppress
}

// EmitPacket pushes a packet onto the shared channel. Returns
// core.ErrTerminated once the run is shutting down.
func (b *Base) EmitPacket(p core.Packet) error {
	return b.ch.Push(p)
}

// Halted reports whether termination has been requested. Capture primitives
// poll this as their halt check and are expected to return control promptly
// once it turns true.
func (b *Base) Halted() bool {
	return b.tok.Tripped()
}

// Done exposes the termination token for select-based capture loops.
func (b *Base) Done() <-chan struct{} {
	return b.tok.Done()
}

// SetState records a lifecycle transition.
func (b *Base) SetState(s State) {
	b.state.Store(int32(s))
}

// State returns the current lifecycle state. Safe to read from another
// goroutine after Join.
func (b *Base) State() State {
	return State(b.state.Load())
}
