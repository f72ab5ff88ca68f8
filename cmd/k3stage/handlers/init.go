package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = wizard.FileExists

	// confirmOverwrite asks before replacing an existing file.
	confirmOverwrite = wizard.ConfirmOverwrite

	// runWizard runs the interactive wizard.
	runWizard = wizard.RunWizard

	// writeConfig writes the config to a file.
	writeConfig = wizard.WriteConfig
)

// Init runs the configuration wizard and writes the result to outputPath.
func Init(ctx context.Context, outputPath string, advanced, fullOutput bool) error {
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return fmt.Errorf("failed to confirm overwrite: %w", err)
		}
		if !ok {
			fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	printWelcome()

	result, err := runWizard(ctx, advanced)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg := wizard.BuildConfig(result)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("generated configuration is invalid: %w", err)
	}

	if err := writeConfig(cfg, outputPath, fullOutput); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "k3stage - K3s cluster bootstrap")
	fmt.Fprintln(stdout, "===============================")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "This wizard writes the inventory shared by every node.")
	fmt.Fprintln(stdout)
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Configuration saved!")
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  File: %s\n", outputPath)
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Cluster Summary")
	fmt.Fprintln(stdout, "---------------")
	fmt.Fprintf(stdout, "  Init node: %s\n", cfg.Cluster.InitNode)
	fmt.Fprintf(stdout, "  Masters:   %d\n", len(cfg.Masters()))
	fmt.Fprintf(stdout, "  Workers:   %d\n", len(cfg.Workers()))
	fmt.Fprintf(stdout, "  Server:    %s\n", cfg.ServerURL())
	if cfg.Cluster.RancherHostname != "" {
		fmt.Fprintf(stdout, "  Rancher:   https://%s (%d replicas)\n", cfg.Cluster.RancherHostname, cfg.Cluster.RancherReplicas)
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Next Steps")
	fmt.Fprintln(stdout, "----------")
	fmt.Fprintf(stdout, "  1. Copy %s to %s on every node\n", outputPath, config.DefaultConfigPath)
	fmt.Fprintln(stdout, "  2. On each node, run: k3stage prepare <node-name>")
	fmt.Fprintln(stdout, "  3. Start the init node first: k3stage run")
	fmt.Fprintln(stdout)
}
