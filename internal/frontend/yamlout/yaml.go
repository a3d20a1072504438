// Package yamlout implements a frontend that streams packet records as YAML
// documents, one per packet, for scripting and diffing.
package yamlout

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/frontend"
	"github.com/usbscope/usbscope/pkg/plugin"
)

const Name = "yaml"

// Options are the constructor inputs produced by argument parsing.
type Options struct {
	Out string `mapstructure:"out"` // empty writes to stdout
}

// record is the YAML shape of one packet.
type record struct {
	Timestamp time.Time `yaml:"timestamp"`
	PID       string    `yaml:"pid"`
	Length    int       `yaml:"length"`
	Flags     uint32    `yaml:"flags"`
	Payload   string    `yaml:"payload"`
}

// Frontend encodes packets as a YAML document stream.
type Frontend struct {
	*frontend.Base

	enc    *yaml.Encoder
	closer io.Closer
}

// New creates a yaml frontend writing to path, or stdout when path is empty.
func New(path string) (*Frontend, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create yaml output: %w", err)
		}
		w = file
		closer = file
	}

	f := &Frontend{enc: yaml.NewEncoder(w), closer: closer}
	f.Base = frontend.NewBase(f)
	return f, nil
}

func (f *Frontend) OnPacket(p core.Packet) {
	rec := record{
		Timestamp: p.Timestamp,
		PID:       core.PIDName(p.PID()),
		Length:    len(p.Payload),
		Flags:     p.Flags,
		Payload:   hex.EncodeToString(p.Payload),
	}
	if err := f.enc.Encode(rec); err != nil {
		slog.Error("yaml encode failed", "error", err)
	}
}

func (f *Frontend) OnTerminate() {
	if err := f.enc.Close(); err != nil {
		slog.Warn("yaml encoder close failed", "error", err)
	}
	if f.closer != nil {
		f.closer.Close()
	}
}

func parseArguments(args []string, defaults map[string]any) (any, []string, error) {
	opts := Options{}
	if len(defaults) > 0 {
		if err := mapstructure.WeakDecode(defaults, &opts); err != nil {
			return nil, nil, fmt.Errorf("%w: yaml defaults: %v", core.ErrInvalidArgument, err)
		}
	}

	fs := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	out := fs.String("out", opts.Out, "output file path (defaults to stdout)")

	leftover, err := plugin.ParseKnown(fs, args)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
	}
	opts.Out = *out
	return opts, leftover, nil
}

func init() {
	plugin.MustRegister(plugin.RoleFrontend, plugin.Descriptor{
		Name:        Name,
		Description: "stream packets as YAML documents",
		Parse:       parseArguments,
		New: func(opts any) (any, error) {
			o, ok := opts.(Options)
			if !ok {
				o = Options{}
			}
			return New(o.Out)
		},
	})
}
