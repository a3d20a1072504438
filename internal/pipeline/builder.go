package pipeline

import (
	"io"
	"time"

	"github.com/usbscope/usbscope/pkg/plugin"
)

// Builder provides a fluent interface for assembling a pipeline.
type Builder struct {
	config Config
}

// NewBuilder creates a builder with default settings.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithBackend sets the capture backend.
func (b *Builder) WithBackend(be plugin.Backend) *Builder {
	b.config.Backend = be
	return b
}

// WithFrontend sets the display frontend.
func (b *Builder) WithFrontend(fe plugin.Frontend) *Builder {
	b.config.Frontend = fe
	return b
}

// WithFilters sets the suppression filter chain.
func (b *Builder) WithFilters(filters ...plugin.Filter) *Builder {
	b.config.Filters = filters
	return b
}

// WithCapacity sets the packet channel bound.
func (b *Builder) WithCapacity(n int) *Builder {
	b.config.Capacity = n
	return b
}

// WithPollTimeout sets the frontend's per-poll wait.
func (b *Builder) WithPollTimeout(d time.Duration) *Builder {
	b.config.PollTimeout = d
	return b
}

// WithJoinTimeout sets the per-context shutdown wait.
func (b *Builder) WithJoinTimeout(d time.Duration) *Builder {
	b.config.JoinTimeout = d
	return b
}

// WithStdin hands a standard input stream down to the frontend.
func (b *Builder) WithStdin(r io.Reader) *Builder {
	b.config.Stdin = r
	return b
}

// Build assembles the pipeline.
func (b *Builder) Build() *Pipeline {
	return New(b.config)
}
