package filter

import (
	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/pkg/plugin"
)

// PIDFilter suppresses packets whose packet identifier matches.
// High-rate captures are dominated by SOF and NAK traffic most users never
// want to see, so dropping these at the source is the common case.
type PIDFilter struct {
	pid byte
}

func NewPIDFilter(pid byte) *PIDFilter {
	return &PIDFilter{pid: pid}
}

func (f *PIDFilter) Suppress(p core.Packet) bool {
	return p.PID() == f.pid
}

// FlagFilter suppresses packets with any of the given status flag bits set.
type FlagFilter struct {
	mask uint32
}

func NewFlagFilter(mask uint32) *FlagFilter {
	return &FlagFilter{mask: mask}
}

func (f *FlagFilter) Suppress(p core.Packet) bool {
	return p.Flags&f.mask != 0
}

func init() {
	plugin.MustRegister(plugin.RoleFilter, plugin.Descriptor{
		Name:        "sof",
		Description: "suppress start-of-frame packets",
		New: func(opts any) (any, error) {
			return NewPIDFilter(core.PIDSOF), nil
		},
	})
	plugin.MustRegister(plugin.RoleFilter, plugin.Descriptor{
		Name:        "nak",
		Description: "suppress NAK handshake packets",
		New: func(opts any) (any, error) {
			return NewPIDFilter(core.PIDNak), nil
		},
	})
	plugin.MustRegister(plugin.RoleFilter, plugin.Descriptor{
		Name:        "error-status",
		Description: "suppress packets whose capture status reported an error",
		New: func(opts any) (any, error) {
			return NewFlagFilter(core.FlagError), nil
		},
	})
}
