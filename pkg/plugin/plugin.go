// Package plugin defines the plugin roles, the self-describing descriptor
// every implementation registers, and the role-keyed registry used to
// enumerate, select and instantiate them.
package plugin

import (
	"io"

	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/pipe"
)

// Role identifies one of the pluggable positions in the pipeline.
type Role string

const (
	RoleBackend  Role = "backend"
	RoleFrontend Role = "frontend"
	RoleFilter   Role = "filter"
)

// Roles lists every supported role, in display order.
var Roles = []Role{RoleBackend, RoleFrontend, RoleFilter}

// Descriptor is the registration record for one role implementation.
// Implementations register a descriptor from their package init; the rest of
// the system discovers them through the registry without knowing concrete
// types in advance.
type Descriptor struct {
	// Name is the unique selection key within a role, matched exactly.
	Name string

	// Description is a human-readable one-liner for UI listings.
	Description string

	// Disabled reports why the implementation cannot be used right now, or
	// "" when it is available. It is evaluated lazily on every query, never
	// cached, because availability depends on the runtime environment.
	// A nil Disabled means always available.
	Disabled func() string

	// Parse consumes the arguments the implementation recognizes and returns
	// its constructor options plus every argument it did not consume.
	// defaults carries per-plugin option defaults from the config file.
	// A nil Parse recognizes nothing and passes all arguments through.
	Parse func(args []string, defaults map[string]any) (opts any, leftover []string, err error)

	// New constructs the implementation from the options Parse produced.
	New func(opts any) (any, error)
}

// DisableReason evaluates the descriptor's availability check.
func (d Descriptor) DisableReason() string {
	if d.Disabled == nil {
		return ""
	}
	return d.Disabled()
}

// Available reports whether the implementation can be used on this system.
func (d Descriptor) Available() bool {
	return d.DisableReason() == ""
}

// Backend is a capture-source implementation. It owns its capture device
// exclusively; the channel and token are the only state it shares with the
// consuming side.
type Backend interface {
	// Attach wires the shared IPC primitives. Must be called before Run.
	Attach(ch *pipe.Channel, tok *pipe.Token)

	// SetSuppression installs a predicate applied to every packet before it
	// crosses the execution boundary; packets it returns true for are
	// silently discarded. nil means never suppress.
	SetSuppression(fn func(core.Packet) bool)

	// Run performs the capture loop until termination is requested, and
	// guarantees the capture device is released on every exit path.
	Run() error
}

// Frontend is a display implementation consuming packets from the channel.
type Frontend interface {
	// Attach wires the shared IPC primitives and optionally takes over a
	// standard input stream handed down from the parent context. Must be
	// called once, before Run.
	Attach(ch *pipe.Channel, tok *pipe.Token, stdin io.Reader)

	// Run loops until the termination token trips.
	Run() error
}

// Filter decides whether a packet should be dropped before it reaches the
// channel. Filters run inside the backend's execution context, at the
// earliest possible point.
type Filter interface {
	Suppress(p core.Packet) bool
}
