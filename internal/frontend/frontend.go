// Package frontend implements the display-frontend role: shared polling and
// dispatch machinery concrete frontends embed.
package frontend

import (
	"io"
	"sync"
	"time"

	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/pipe"
)

// DefaultPollTimeout bounds a single poll so the frontend's event loop never
// busy-spins while staying responsive to termination.
const DefaultPollTimeout = 10 * time.Millisecond

// Handler is what a concrete frontend contributes: rendering one packet, and
// cleaning up once the run terminates.
type Handler interface {
	OnPacket(p core.Packet)
	OnTerminate()
}

// Base carries the IPC wiring and poll loop shared by all frontends. The
// default Run suits non-interactive frontends; interactive ones drive
// DrainAvailable from their own UI tick instead.
type Base struct {
	handler Handler

	ch    *pipe.Channel
	tok   *pipe.Token
	stdin io.Reader

	pollTimeout time.Duration
	termOnce    sync.Once
}

// NewBase wires a base to its concrete handler.
func NewBase(h Handler) *Base {
	return &Base{handler: h, pollTimeout: DefaultPollTimeout}
}

// Attach wires the shared IPC primitives and optionally takes over a standard
// input stream handed down from the parent context. Must be called once,
// before Run.
func (b *Base) Attach(ch *pipe.Channel, tok *pipe.Token, stdin io.Reader) {
	b.ch = ch
	b.tok = tok
	b.stdin = stdin
}

// Stdin returns the input stream handed down at Attach, or nil.
func (b *Base) Stdin() io.Reader {
	return b.stdin
}

// SetPollTimeout overrides the per-poll wait bound.
func (b *Base) SetPollTimeout(d time.Duration) {
	if d > 0 {
		b.pollTimeout = d
	}
}

// Terminated reports whether the run has been shut down.
func (b *Base) Terminated() bool {
	return b.tok.Tripped()
}

// RequestStop trips the shared termination token, e.g. when the user quits
// the UI. Idempotent.
func (b *Base) RequestStop() {
	b.tok.Trip()
}

// PollOnce waits up to the poll timeout for one packet. Returns false rather
// than blocking indefinitely when none arrives.
func (b *Base) PollOnce() (core.Packet, bool) {
	return b.ch.TryPop(b.pollTimeout)
}

// DrainAvailable polls and dispatches packets to the handler until a poll
// comes back empty. This is the per-tick unit of work a frontend performs
// between its own UI responsibilities.
func (b *Base) DrainAvailable() {
	for {
		p, ok := b.ch.TryPop(0)
		if !ok {
			return
		}
		b.handler.OnPacket(p)
	}
}

// Run loops until the termination token trips, then runs the handler's
// cleanup exactly once. Termination only stops production; packets already
// queued are still delivered, so the final drain runs after the loop exits.
func (b *Base) Run() error {
	for !b.tok.Tripped() {
		p, ok := b.PollOnce()
		if !ok {
			continue
		}
		b.handler.OnPacket(p)
		b.DrainAvailable()
	}
	b.DrainAvailable()
	b.Terminate()
	return nil
}

// Terminate invokes the handler's cleanup. Guarded so overridden run loops
// and the default one cannot double-clean.
func (b *Base) Terminate() {
	b.termOnce.Do(b.handler.OnTerminate)
}
