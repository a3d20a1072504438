// Package filter implements the suppression filter chain applied inside the
// backend's execution context, before packets cross the pipeline boundary.
package filter

import (
	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/pkg/plugin"
)

// Chain composes filters into a single suppression decision. A packet is
// suppressed as soon as any filter in the chain claims it.
type Chain struct {
	filters []plugin.Filter
}

// NewChain builds a chain over the given filters, in order.
func NewChain(filters ...plugin.Filter) *Chain {
	all := make([]plugin.Filter, len(filters))
	copy(all, filters)
	return &Chain{filters: all}
}

// Suppress reports whether any filter in the chain drops the packet.
func (c *Chain) Suppress(p core.Packet) bool {
	for _, f := range c.filters {
		if f.Suppress(p) {
			return true
		}
	}
	return false
}

// Predicate adapts the chain to the suppression hook backends accept.
// An empty chain yields nil, meaning never suppress.
func (c *Chain) Predicate() func(core.Packet) bool {
	if len(c.filters) == 0 {
		return nil
	}
	return c.Suppress
}

// Filters returns the filters in chain order.
func (c *Chain) Filters() []plugin.Filter {
	return c.filters
}
