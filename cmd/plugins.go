package cmd

// Concrete plugins register themselves from package init; importing them here
// is what makes them selectable.
import (
	_ "github.com/usbscope/usbscope/internal/backend/openvizsla"
	_ "github.com/usbscope/usbscope/internal/backend/usbmon"
	_ "github.com/usbscope/usbscope/internal/filter"
	_ "github.com/usbscope/usbscope/internal/frontend/console"
	_ "github.com/usbscope/usbscope/internal/frontend/pcapfile"
	_ "github.com/usbscope/usbscope/internal/frontend/tui"
	_ "github.com/usbscope/usbscope/internal/frontend/yamlout"
)
