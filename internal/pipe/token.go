// Package pipe implements the IPC primitives shared between the capture and
// display execution contexts: a bounded packet channel and a one-shot
// termination token. These are the only mutable objects the two sides share.
package pipe

import (
	"sync"

	"github.com/tevino/abool"
)

// Token is a cooperative cancellation token. Any party may trip it; once
// tripped it never resets within a run. Both pipeline loops are expected to
// observe it on every iteration, either by polling Tripped or by selecting
// on Done.
type Token struct {
	flag *abool.AtomicBool
	once sync.Once
	done chan struct{}
}

// NewToken returns an untripped token.
func NewToken() *Token {
	return &Token{
		flag: abool.New(),
		done: make(chan struct{}),
	}
}

// Trip marks the run as terminated. Idempotent.
func (t *Token) Trip() {
	t.once.Do(func() {
		t.flag.Set()
		close(t.done)
	})
}

// Tripped reports whether termination has been requested.
func (t *Token) Tripped() bool {
	return t.flag.IsSet()
}

// Done returns a channel that is closed when the token trips.
func (t *Token) Done() <-chan struct{} {
	return t.done
}
