package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usbscope/usbscope/pkg/plugin"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plugins",
	Long: `
List every registered backend, frontend and filter. Plugins whose runtime
requirements are not met on this system are shown with the reason they are
unavailable. Availability is checked at the moment of listing.
`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, role := range plugin.Roles {
			fmt.Fprintf(out, "%ss:\n", role)

			available, unavailable := plugin.Partition(plugin.Default(), role)
			if len(available) == 0 && len(unavailable) == 0 {
				fmt.Fprintln(out, "  (none)")
			}
			for _, d := range available {
				fmt.Fprintf(out, "  %-12s %s\n", d.Name, d.Description)
			}
			for _, d := range unavailable {
				fmt.Fprintf(out, "  %-12s %s [unavailable: %s]\n",
					d.Descriptor.Name, d.Descriptor.Description, d.Reason)
			}
			fmt.Fprintln(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
