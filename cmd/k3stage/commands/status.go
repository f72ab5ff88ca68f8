package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3stage/cmd/k3stage/handlers"
	"github.com/imamik/k3stage/internal/config"
)

// Status returns the command showing node and platform state.
//
// Flags:
//
//	--config, -c: Path to the inventory
//	--kubeconfig: Path to a kubeconfig (default: the K3s server kubeconfig)
//	--json:       Output as JSON
func Status() *cobra.Command {
	var (
		configPath     string
		kubeconfigPath string
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show node readiness and platform releases",
		Long: `Show which inventory nodes have joined and are ready, and the state of
the platform releases (flannel, longhorn, cert-manager, rancher).

Run it on a master, where the K3s kubeconfig is available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), configPath, kubeconfigPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to the inventory file")
	cmd.Flags().StringVar(&kubeconfigPath, "kubeconfig", "", "Path to kubeconfig (default: /etc/rancher/k3s/k3s.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
