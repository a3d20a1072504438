// Package openvizsla implements the capture backend for OpenVizsla hardware
// analyzers. The concrete device driver is an external dependency reached
// through the narrow Device interface; when no driver is linked in, the
// backend reports itself unavailable instead of failing at capture time.
package openvizsla

import (
	"fmt"
	"sync"
	"time"

	"github.com/usbscope/usbscope/internal/core"
)

// Speed is the USB capture speed the analyzer is configured for.
type Speed int

const (
	SpeedHigh Speed = iota
	SpeedFull
	SpeedLow
)

func (s Speed) String() string {
	switch s {
	case SpeedHigh:
		return "high"
	case SpeedFull:
		return "full"
	case SpeedLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseSpeed maps a speed argument string onto its enumerated value. Anything
// outside the fixed set fails with core.ErrInvalidArgument, before any device
// is constructed.
func ParseSpeed(s string) (Speed, error) {
	switch s {
	case "high":
		return SpeedHigh, nil
	case "full":
		return SpeedFull, nil
	case "low":
		return SpeedLow, nil
	default:
		return 0, fmt.Errorf("%w: speed must be 'high', 'full' or 'low', got %q", core.ErrInvalidArgument, s)
	}
}

// EventSink receives one call per raw USB event the device observed.
type EventSink func(timestamp time.Time, raw []byte, flags uint32)

// Device is the opaque capture-device interface the backend drives. Open may
// include hardware reconfiguration; RunCapture blocks, polling halt between
// events and returning promptly once it reports true; EnsureCaptureStopped
// and Close must be safe to call after any failure.
type Device interface {
	Open(reconfigure bool) error
	RegisterSink(sink EventSink)
	RunCapture(speed Speed, halt func() bool) error
	EnsureCaptureStopped()
	Close() error
}

var (
	driverMu      sync.RWMutex
	driverFactory func() (Device, error)
)

// RegisterDriver installs the concrete device driver. Called from the
// driver's package init when one is linked into the binary.
func RegisterDriver(factory func() (Device, error)) {
	driverMu.Lock()
	defer driverMu.Unlock()
	driverFactory = factory
}

// openDevice constructs a device through the registered driver.
func openDevice() (Device, error) {
	driverMu.RLock()
	factory := driverFactory
	driverMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: openvizsla driver not available", core.ErrPluginUnavailable)
	}
	return factory()
}

// reasonToBeDisabled is the availability check behind the registry entry.
// Evaluated on every query; installing a driver between two calls flips the
// answer.
func reasonToBeDisabled() string {
	driverMu.RLock()
	defer driverMu.RUnlock()
	if driverFactory == nil {
		return "openvizsla driver not available"
	}
	return ""
}
