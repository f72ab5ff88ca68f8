package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3stage/cmd/k3stage/handlers"
	"github.com/imamik/k3stage/internal/config"
)

// Run returns the command that brings this machine into the cluster.
//
// Optional flags:
//
//	--config, -c: Path to the inventory (default /etc/k3stage/cluster.conf)
//	--env-file:   Credential overrides (default /etc/k3stage/k3stage.env)
//	--fresh:      Ignore the persisted checkpoint
//	--reboot:     Allow a scheduled reboot after package installation
//	--tui:        Show an interactive progress view
//	--hostname:   Act as this inventory node instead of the local hostname
func Run() *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision this node",
		Long: `Provision this node according to the shared inventory.

The node looks up its own hostname in the inventory to learn its role, then
runs the stages in order: packages, network, join, readiness, platform
(init node only) and report.

Some stages end the run early and ask you to run again, for example after
the static address was applied. Completed stages are remembered and skipped
on the next run. Use --fresh to start over.

Examples:
  # Provision using /etc/k3stage/cluster.conf
  k3stage run

  # Use another inventory and show progress
  k3stage run -c ./cluster.yaml --tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultConfigPath, "Path to the inventory file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "Path to the credentials env file")
	cmd.Flags().BoolVar(&opts.Fresh, "fresh", false, "Ignore the persisted checkpoint")
	cmd.Flags().BoolVar(&opts.Reboot, "reboot", false, "Reboot after package installation when required")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "Show an interactive progress view")
	cmd.Flags().StringVar(&opts.Hostname, "hostname", "", "Act as this inventory node instead of the local hostname")

	return cmd
}
