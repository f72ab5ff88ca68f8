// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the k3stage CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "k3stage",
		Short:         "Bootstrap a K3s cluster node by node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Run())
	cmd.AddCommand(Prepare())
	cmd.AddCommand(Status())
	cmd.AddCommand(Init())

	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
