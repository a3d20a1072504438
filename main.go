// Package main is the entry point for the usbscope USB traffic analyzer.
package main

import (
	"fmt"
	"os"

	"github.com/usbscope/usbscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
