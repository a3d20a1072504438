// Package pipeline assembles and runs one capture-to-display pipeline: a
// backend and a frontend in separate execution contexts, joined by a bounded
// packet channel and a shared termination token.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/usbscope/usbscope/internal/filter"
	"github.com/usbscope/usbscope/internal/pipe"
	"github.com/usbscope/usbscope/internal/proc"
	"github.com/usbscope/usbscope/pkg/plugin"
)

// Config contains pipeline configuration.
type Config struct {
	Backend  plugin.Backend
	Frontend plugin.Frontend
	Filters  []plugin.Filter

	Capacity    int           // packet channel bound
	PollTimeout time.Duration // frontend per-poll wait
	JoinTimeout time.Duration // shutdown wait per execution context
	Stdin       io.Reader     // handed to the frontend, may be nil
}

// Pipeline is a single assembled run.
type Pipeline struct {
	backend  plugin.Backend
	frontend plugin.Frontend

	token *pipe.Token
	ch    *pipe.Channel

	bproc *proc.Manager
	fproc *proc.Manager

	joinTimeout time.Duration
}

const (
	defaultCapacity    = 4096
	defaultJoinTimeout = 5 * time.Second
)

// New wires the shared IPC primitives into both sides. After New, the
// channel and token are the only mutable state the two contexts share.
func New(cfg Config) *Pipeline {
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultCapacity
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}

	token := pipe.NewToken()
	ch := pipe.NewChannel(cfg.Capacity, token)

	cfg.Backend.Attach(ch, token)
	if pred := filter.NewChain(cfg.Filters...).Predicate(); pred != nil {
		cfg.Backend.SetSuppression(pred)
	}

	cfg.Frontend.Attach(ch, token, cfg.Stdin)
	if cfg.PollTimeout > 0 {
		if pt, ok := cfg.Frontend.(interface{ SetPollTimeout(time.Duration) }); ok {
			pt.SetPollTimeout(cfg.PollTimeout)
		}
	}

	return &Pipeline{
		backend:     cfg.Backend,
		frontend:    cfg.Frontend,
		token:       token,
		ch:          ch,
		bproc:       proc.NewManager("backend", token),
		fproc:       proc.NewManager("frontend", token),
		joinTimeout: cfg.JoinTimeout,
	}
}

// RequestStop signals cooperative termination of the run. Idempotent.
func (p *Pipeline) RequestStop() {
	p.token.Trip()
}

// Run starts both execution contexts and blocks until the run ends: either
// side finishing, either side failing, or ctx being canceled. Both contexts
// are then joined within the configured timeout; a context that does not
// exit is reported as hung and abandoned.
func (p *Pipeline) Run(ctx context.Context) error {
	slog.Info("pipeline starting", "capacity", p.ch.Cap())

	if err := p.bproc.Start(p.backend); err != nil {
		return err
	}
	if err := p.fproc.Start(p.frontend); err != nil {
		p.RequestStop()
		p.bproc.Join(p.joinTimeout)
		return err
	}

	select {
	case <-ctx.Done():
		slog.Info("pipeline stop requested")
		p.RequestStop()
	case <-p.token.Done():
	}

	var errs []error
	for _, m := range []*proc.Manager{p.bproc, p.fproc} {
		if !m.Join(p.joinTimeout) {
			slog.Error("execution context did not exit, abandoning", "context", m.Name())
			errs = append(errs, fmt.Errorf("%s context hung after %s", m.Name(), p.joinTimeout))
			continue
		}
		if err := m.Err(); err != nil {
			errs = append(errs, err)
		}
	}

	slog.Info("pipeline stopped")
	return errors.Join(errs...)
}
