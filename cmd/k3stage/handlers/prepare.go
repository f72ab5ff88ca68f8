package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning/host"
)

// HostPreparer performs the one-time host setup.
type HostPreparer interface {
	Prepare(ctx context.Context, cfg *config.Config, name string) (*host.PrepareResult, error)
}

// newPreparer creates the host preparer (for testing injection).
var newPreparer = func(runner shell.Runner) HostPreparer {
	return &host.Preparer{Runner: runner, HostsPath: host.DefaultHostsPath}
}

// Prepare readies this machine to act as node name: it sets the hostname,
// writes the inventory into the hosts file and makes sure an SSH key exists
// for reaching the init node.
func Prepare(ctx context.Context, configPath, name string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()

	log, err := openLog(cfg.Paths.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	result, err := newPreparer(newRunner(log.Writer())).Prepare(ctx, cfg, name)
	if err != nil {
		return fmt.Errorf("failed to prepare %s: %w", name, err)
	}

	initNode, _ := cfg.InitNode()
	printPrepareResult(result, initNode, cfg.SSH.User)
	return nil
}

func printPrepareResult(result *host.PrepareResult, initNode config.Node, sshUser string) {
	n := result.Node
	fmt.Fprintf(stdout, "Prepared %s (%s, %s)\n\n", n.Name, n.Role, n.Address)
	fmt.Fprintf(stdout, "  Hostname:  %s\n", changedLabel(result.HostnameChanged, "set", "unchanged"))
	fmt.Fprintf(stdout, "  Hosts:     %s\n", changedLabel(result.HostsUpdated, "updated", "unchanged"))
	fmt.Fprintf(stdout, "  SSH key:   %s (%s)\n", result.KeyPath, changedLabel(result.KeyCreated, "created", "existing"))
	fmt.Fprintln(stdout)

	if n.Name == initNode.Name {
		fmt.Fprintln(stdout, "This is the init node. Authorize the public keys of the other nodes here.")
		return
	}
	fmt.Fprintf(stdout, "Authorize this key for %s on %s (%s):\n\n", sshUser, initNode.Name, initNode.Address)
	fmt.Fprintln(stdout, result.PublicKey)
}

func changedLabel(changed bool, yes, no string) string {
	if changed {
		return yes
	}
	return no
}
