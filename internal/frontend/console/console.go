// Package console implements the default line-per-packet display frontend.
package console

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/frontend"
	"github.com/usbscope/usbscope/pkg/plugin"
)

const Name = "console"

// Frontend writes one line per packet to its output.
type Frontend struct {
	*frontend.Base

	w *bufio.Writer
}

// New creates a console frontend writing to w; nil means stdout.
func New(w io.Writer) *Frontend {
	if w == nil {
		w = os.Stdout
	}
	f := &Frontend{w: bufio.NewWriter(w)}
	f.Base = frontend.NewBase(f)
	return f
}

func (f *Frontend) OnPacket(p core.Packet) {
	fmt.Fprintf(f.w, "%s  %-5s  len=%-4d flags=%#04x  %s\n",
		p.Timestamp.Format("15:04:05.000000"),
		core.PIDName(p.PID()),
		len(p.Payload),
		p.Flags,
		hex.EncodeToString(p.Payload),
	)
}

func (f *Frontend) OnTerminate() {
	f.w.Flush()
}

func init() {
	plugin.MustRegister(plugin.RoleFrontend, plugin.Descriptor{
		Name:        Name,
		Description: "print packets to standard output",
		New: func(opts any) (any, error) {
			return New(nil), nil
		},
	})
}
