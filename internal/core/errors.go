// Package core defines sentinel errors.
package core

import "errors"

var (
	// Plugin selection and argument errors
	ErrInvalidArgument   = errors.New("usbscope: invalid argument")
	ErrPluginUnavailable = errors.New("usbscope: plugin unavailable")

	// Capture device errors
	ErrCaptureDevice = errors.New("usbscope: capture device failure")

	// ErrTerminated is not a true failure. It is how a blocked producer
	// learns that the run has been shut down.
	ErrTerminated = errors.New("usbscope: pipeline terminated")
)
