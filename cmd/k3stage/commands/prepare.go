package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3stage/cmd/k3stage/handlers"
	"github.com/imamik/k3stage/internal/config"
)

// Prepare returns the command for the one-time host setup.
func Prepare() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "prepare <node-name>",
		Short: "Set up this machine as an inventory node",
		Long: `Set up this machine to act as the given inventory node.

This sets the hostname, writes the inventory into /etc/hosts and makes sure
an SSH key exists. The public key is printed so it can be authorized on the
init node, which the other nodes contact for the join token.

It is safe to run again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Prepare(cmd.Context(), configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to the inventory file")

	return cmd
}
