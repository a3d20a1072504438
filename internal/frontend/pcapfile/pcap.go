// Package pcapfile implements a frontend that records captured packets to a
// pcap file for offline analysis in Wireshark and friends.
package pcapfile

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"

	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/frontend"
	"github.com/usbscope/usbscope/pkg/plugin"
)

const Name = "pcap"

// linkTypeLinuxUSB is DLT_USB_LINUX_MMAPPED; gopacket has no named constant
// for it.
const linkTypeLinuxUSB = layers.LinkType(220)

const snapLen = 65536

// Options are the constructor inputs produced by argument parsing.
type Options struct {
	Out string `mapstructure:"out"`
}

// Frontend appends every packet to a pcap file.
type Frontend struct {
	*frontend.Base

	file   *os.File
	writer *pcapgo.Writer
}

// New creates the output file and writes the pcap header immediately, so a
// bad path fails at startup rather than mid-capture.
func New(path string) (*Frontend, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: pcap frontend requires --out", core.ErrInvalidArgument)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pcap file: %w", err)
	}
	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(snapLen, linkTypeLinuxUSB); err != nil {
		file.Close()
		return nil, fmt.Errorf("write pcap header: %w", err)
	}

	f := &Frontend{file: file, writer: writer}
	f.Base = frontend.NewBase(f)
	return f, nil
}

func (f *Frontend) OnPacket(p core.Packet) {
	ci := gopacket.CaptureInfo{
		Timestamp:     p.Timestamp,
		CaptureLength: len(p.Payload),
		Length:        len(p.Payload),
	}
	if err := f.writer.WritePacket(ci, p.Payload); err != nil {
		slog.Error("pcap write failed", "error", err)
	}
}

func (f *Frontend) OnTerminate() {
	if err := f.file.Close(); err != nil {
		slog.Warn("pcap file close failed", "error", err)
	}
}

func parseArguments(args []string, defaults map[string]any) (any, []string, error) {
	opts := Options{}
	if len(defaults) > 0 {
		if err := mapstructure.WeakDecode(defaults, &opts); err != nil {
			return nil, nil, fmt.Errorf("%w: pcap defaults: %v", core.ErrInvalidArgument, err)
		}
	}

	fs := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	out := fs.String("out", opts.Out, "path of the pcap file to write")

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
		Description: "write packets to a pcap file",
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
