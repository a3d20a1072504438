package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/usbscope/usbscope/internal/config"
	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/log"
	"github.com/usbscope/usbscope/internal/pipeline"
	"github.com/usbscope/usbscope/pkg/plugin"
)

var (
	backendName  string
	frontendName string
	filterNames  []string
)

var runCmd = &cobra.Command{
	Use:   "run [-- plugin args]",
	Short: "Run a capture pipeline",
	Long: `
Run one capture pipeline: the selected backend captures USB traffic and the
selected frontend displays it. Plugin-specific arguments go after '--'; each
plugin consumes the ones it recognizes and passes the rest along.

Examples:
  usbscope run                                        # usbmon capture, console output
  usbscope run --frontend tui                         # interactive table view
  usbscope run --frontend pcap -- --out trace.pcap    # write a pcap file
  usbscope run --filter sof --filter nak              # hide bus chatter
  usbscope run --backend openvizsla -- --speed high
`,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := log.Init(cfg.Log); err != nil {
		return err
	}

	leftover := pluginArgs(cmd, args)

	be, leftover, err := resolveBackend(cfg, leftover)
	if err != nil {
		return err
	}
	fe, leftover, err := resolveFrontend(cfg, leftover)
	if err != nil {
		return err
	}
	filters, leftover, err := resolveFilters(cfg, leftover)
	if err != nil {
		return err
	}
	if len(leftover) > 0 {
		return fmt.Errorf("unrecognized arguments: %s", strings.Join(leftover, " "))
	}

	p := pipeline.NewBuilder().
		WithBackend(be).
		WithFrontend(fe).
		WithFilters(filters...).
		WithCapacity(cfg.Channel.Capacity).
		WithPollTimeout(cfg.Frontend.PollTimeout).
		WithJoinTimeout(cfg.Shutdown.JoinTimeout).
		WithStdin(os.Stdin).
		Build()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return p.Run(ctx)
}

// pluginArgs returns the arguments after '--', which cobra leaves in args
// past ArgsLenAtDash.
func pluginArgs(cmd *cobra.Command, args []string) []string {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[at:]
	}
	return args
}

func resolveBackend(cfg *config.Config, args []string) (plugin.Backend, []string, error) {
	inst, leftover, err := resolvePlugin(cfg, plugin.RoleBackend, backendName, args)
	if err != nil {
		return nil, nil, err
	}
	be, ok := inst.(plugin.Backend)
	if !ok {
		return nil, nil, fmt.Errorf("backend '%s' does not implement the backend contract", backendName)
	}
	return be, leftover, nil
}

func resolveFrontend(cfg *config.Config, args []string) (plugin.Frontend, []string, error) {
	inst, leftover, err := resolvePlugin(cfg, plugin.RoleFrontend, frontendName, args)
	if err != nil {
		return nil, nil, err
	}
	fe, ok := inst.(plugin.Frontend)
	if !ok {
		return nil, nil, fmt.Errorf("frontend '%s' does not implement the frontend contract", frontendName)
	}
	return fe, leftover, nil
}

func resolveFilters(cfg *config.Config, args []string) ([]plugin.Filter, []string, error) {
	var filters []plugin.Filter
	for _, name := range filterNames {
		inst, left, err := resolvePlugin(cfg, plugin.RoleFilter, name, args)
		if err != nil {
			return nil, nil, err
		}
		f, ok := inst.(plugin.Filter)
		if !ok {
			return nil, nil, fmt.Errorf("filter '%s' does not implement the filter contract", name)
		}
		filters = append(filters, f)
		args = left
	}
	return filters, args, nil
}

// resolvePlugin looks a plugin up by name, refuses unavailable ones with
// their reason, and runs the two-stage instantiation.
func resolvePlugin(cfg *config.Config, role plugin.Role, name string, args []string) (any, []string, error) {
	d, ok := plugin.Find(role, name)
	if !ok {
		return nil, nil, fmt.Errorf("unknown %s '%s' (see 'usbscope list')", role, name)
	}
	if reason := d.DisableReason(); reason != "" {
		return nil, nil, fmt.Errorf("%w: %s '%s': %s", core.ErrPluginUnavailable, role, name, reason)
	}
	return plugin.Instantiate(d, args, cfg.PluginDefaults(name))
}

func init() {
	runCmd.Flags().StringVarP(&backendName, "backend", "b", "usbmon", "capture backend")
	runCmd.Flags().StringVarP(&frontendName, "frontend", "f", "console", "display frontend")
	runCmd.Flags().StringArrayVar(&filterNames, "filter", nil, "suppression filter, repeatable")
	rootCmd.AddCommand(runCmd)
}
