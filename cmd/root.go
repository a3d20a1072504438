// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "usbscope",
	Short: "usbscope - USB traffic capture and display",
	Long: `usbscope captures USB traffic from a hardware or software capture source
and hands it to a display frontend of your choice.

Capture backends, display frontends and suppression filters are plugins
selected by name at startup. Arguments a plugin recognizes are passed
after '--' and threaded through each selected plugin in turn:

  usbscope run --backend usbmon --frontend console -- --bus 0
  usbscope run --backend openvizsla --frontend tui -- --speed full
  usbscope list`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")
}
