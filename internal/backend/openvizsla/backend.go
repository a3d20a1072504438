package openvizsla

import (
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"

	"github.com/usbscope/usbscope/internal/backend"
	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/pkg/plugin"
)

const Name = "openvizsla"

// Options are the constructor inputs produced by argument parsing.
type Options struct {
	Speed string `mapstructure:"speed"`
}

// Backend captures USB packets from an OpenVizsla analyzer.
type Backend struct {
	backend.Base

	speed  Speed
	device Device
}

// New creates a backend capturing at the given speed. The device is
// constructed here but not yet opened.
func New(speed Speed) (*Backend, error) {
	dev, err := openDevice()
	if err != nil {
		return nil, err
	}
	b := &Backend{speed: speed, device: dev}
	b.SetState(backend.StateConstructed)
	return b, nil
}

// Run opens the device and captures until termination is requested. The
// device is closed and any active capture explicitly stopped on every exit
// path, including a capture failure partway through.
func (b *Backend) Run() error {
	sink := backend.NewSink(&b.Base, b.Suppression())
	b.device.RegisterSink(sink.HandleEvent)

	if err := b.device.Open(true); err != nil {
		b.SetState(backend.StateClosed)
		return fmt.Errorf("%w: open: %v", core.ErrCaptureDevice, err)
	}
	b.SetState(backend.StateOpened)

	defer func() {
		b.SetState(backend.StateStopping)
		b.device.EnsureCaptureStopped()
		if err := b.device.Close(); err != nil {
			slog.Warn("openvizsla device close failed", "error", err)
		}
		b.SetState(backend.StateClosed)
	}()

	slog.Info("openvizsla capture starting", "speed", b.speed.String())
	b.SetState(backend.StateCapturing)

	if err := b.device.RunCapture(b.speed, b.Halted); err != nil {
		return fmt.Errorf("%w: capture: %v", core.ErrCaptureDevice, err)
	}
	return nil
}

func parseArguments(args []string, defaults map[string]any) (any, []string, error) {
	opts := Options{Speed: "high"}
	if len(defaults) > 0 {
		if err := mapstructure.WeakDecode(defaults, &opts); err != nil {
			return nil, nil, fmt.Errorf("%w: openvizsla defaults: %v", core.ErrInvalidArgument, err)
		}
	}

	fs := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	speed := fs.String("speed", opts.Speed, "the speed of the USB data to capture [valid: {high, full, low}]")

	leftover, err := plugin.ParseKnown(fs, args)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
	}
	if _, err := ParseSpeed(*speed); err != nil {
		return nil, nil, err
	}
	opts.Speed = *speed
	return opts, leftover, nil
}

func init() {
	plugin.MustRegister(plugin.RoleBackend, plugin.Descriptor{
		Name:        Name,
		Description: "OpenVizsla hardware analyzers",
		Disabled:    reasonToBeDisabled,
		Parse:       parseArguments,
		New: func(opts any) (any, error) {
			o, ok := opts.(Options)
			if !ok {
				o = Options{Speed: "high"}
			}
			speed, err := ParseSpeed(o.Speed)
			if err != nil {
				return nil, err
			}
			return New(speed)
		},
	})
}
