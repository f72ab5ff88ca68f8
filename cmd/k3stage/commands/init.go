package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3stage/cmd/k3stage/handlers"
)

// Init returns the command for interactively creating an inventory.
//
// Flags:
//
//	--output, -o: Path to output file (default "cluster.yaml")
//	--advanced, -a: Show advanced configuration options
//	--full, -f: Output full YAML with all options (default: minimal output)
func Init() *cobra.Command {
	var (
		outputPath string
		advanced   bool
		fullOutput bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create an inventory",
		Long: `Interactively create the inventory shared by all nodes.

This command asks about:

  - The nodes (name, address and role) and the init node
  - Rancher hostname and replicas
  - SSH access to the init node
  - Static addressing (interface, prefix, gateway, DNS)

Use --advanced for the K3s channel, cluster CIDR, extra packages and
etcd snapshot upload to S3.

Use --full to output the complete YAML with every option. By default
only values that differ from the defaults are written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, advanced, fullOutput)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "cluster.yaml", "Output file path")
	cmd.Flags().BoolVarP(&advanced, "advanced", "a", false, "Show advanced configuration options")
	cmd.Flags().BoolVarP(&fullOutput, "full", "f", false, "Output full YAML with all options")

	return cmd
}
