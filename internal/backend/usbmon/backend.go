package usbmon

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"

	"github.com/usbscope/usbscope/internal/backend"
	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/pkg/plugin"
)

const Name = "usbmon"

// monRoot is a variable so tests can point the backend at a fixture tree.
var monRoot = "/sys/kernel/debug/usb/usbmon"

// Options are the constructor inputs produced by argument parsing.
type Options struct {
	Bus int `mapstructure:"bus"` // 0 captures all buses
}

// Backend captures USB traffic from the kernel's usbmon text interface.
type Backend struct {
	backend.Base

	path string
}

// New creates a backend reading the usbmon node for the given bus.
func New(bus int) *Backend {
	b := &Backend{path: filepath.Join(monRoot, fmt.Sprintf("%du", bus))}
	b.SetState(backend.StateConstructed)
	return b
}

// Run opens the usbmon node and converts its event lines into packets until
// termination is requested. The node is closed on every exit path; closing it
// is also what unblocks the reader goroutine.
func (b *Backend) Run() error {
	f, err := os.Open(b.path)
	if err != nil {
		b.SetState(backend.StateClosed)
		return fmt.Errorf("%w: open %s: %v", core.ErrCaptureDevice, b.path, err)
	}
	b.SetState(backend.StateOpened)

	defer func() {
		b.SetState(backend.StateStopping)
		if err := f.Close(); err != nil {
			slog.Warn("usbmon node close failed", "error", err)
		}
		b.SetState(backend.StateClosed)
	}()

	// The kernel read blocks until traffic arrives, so reading happens on
	// its own goroutine and the capture loop stays responsive to the halt
	// check through a message-passing boundary.
	lines := make(chan string, 64)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			// A plain send could block forever once the capture loop has
			// returned; the reader must exit on termination too.
			select {
			case lines <- scanner.Text():
			case <-b.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
		}
	}()

	slog.Info("usbmon capture starting", "node", b.path)
	b.SetState(backend.StateCapturing)

	sink := backend.NewSink(&b.Base, b.Suppression())
	for {
		select {
		case <-b.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if ev, ok := parseLine(line); ok {
				sink.HandleEvent(ev.timestamp, ev.payload, ev.flags)
			}
		case err := <-readErr:
			if b.Halted() {
				// The close in our deferred release raced the reader;
				// not a capture failure.
				return nil
			}
			return fmt.Errorf("%w: read %s: %v", core.ErrCaptureDevice, b.path, err)
		}
	}
}

func reasonToBeDisabled() string {
	if _, err := os.Stat(monRoot); err != nil {
		return fmt.Sprintf("usbmon not available at %s (is debugfs mounted and usbmon loaded?)", monRoot)
	}
	return ""
}

func parseArguments(args []string, defaults map[string]any) (any, []string, error) {
	opts := Options{Bus: 0}
	if len(defaults) > 0 {
		if err := mapstructure.WeakDecode(defaults, &opts); err != nil {
			return nil, nil, fmt.Errorf("%w: usbmon defaults: %v", core.ErrInvalidArgument, err)
		}
	}

	fs := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	bus := fs.Int("bus", opts.Bus, "USB bus number to capture (0 captures all buses)")

	leftover, err := plugin.ParseKnown(fs, args)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
	}
	if *bus < 0 {
		return nil, nil, fmt.Errorf("%w: bus must not be negative, got %d", core.ErrInvalidArgument, *bus)
	}
	opts.Bus = *bus
	return opts, leftover, nil
}

func init() {
	plugin.MustRegister(plugin.RoleBackend, plugin.Descriptor{
		Name:        Name,
		Description: "Linux usbmon software capture",
		Disabled:    reasonToBeDisabled,
		Parse:       parseArguments,
		New: func(opts any) (any, error) {
			o, ok := opts.(Options)
			if !ok {
				o = Options{}
			}
			return New(o.Bus), nil
		},
	})
}
