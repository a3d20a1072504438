// Package proc supervises the execution contexts a pipeline run consists of.
// Each role instance runs in its own context; the shared channel and
// termination token are wired in before it starts, and shutdown is
// cooperative: a context that ignores the token can only be abandoned, never
// preempted.
package proc

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/usbscope/usbscope/internal/pipe"
)

// Runner is a role instance ready to execute: IPC primitives already
// attached, Run blocking until the work is done or termination is observed.
type Runner interface {
	Run() error
}

// Manager supervises one execution context.
type Manager struct {
	name  string
	token *pipe.Token

	mu      sync.Mutex
	started bool
	done    chan struct{}
	err     error
}

// NewManager creates a supervisor for one role instance, bound to the run's
// termination token.
func NewManager(name string, token *pipe.Token) *Manager {
	return &Manager{
		name:  name,
		token: token,
		done:  make(chan struct{}),
	}
}

// Start begins executing the runner in its own context. It does not return
// until the context is confirmed running. Whatever way the runner exits —
// completion, error, observed termination — the token is tripped so the peer
// context winds down too.
func (m *Manager) Start(r Runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("context %q already started", m.name)
	}
	m.started = true

	running := make(chan struct{})
	go func() {
		close(running)
		err := r.Run()
		if err != nil {
			slog.Error("execution context failed", "context", m.name, "error", err)
		}
		m.err = err
		m.token.Trip()
		close(m.done)
	}()
	<-running
	return nil
}

// RequestStop signals cooperative termination. Idempotent.
func (m *Manager) RequestStop() {
	m.token.Trip()
}

// Join waits for the execution context to exit, up to timeout. A false return
// means the context is hung; the caller reports it and abandons the context,
// relying on the backend's scoped release for device cleanup.
func (m *Manager) Join(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-m.done:
		return true
	case <-timer.C:
		return false
	}
}

// Err returns the runner's exit error. Only meaningful after a successful
// Join.
func (m *Manager) Err() error {
	return m.err
}

// Name identifies the supervised context in logs and errors.
func (m *Manager) Name() string {
	return m.name
}
