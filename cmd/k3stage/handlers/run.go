// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/logging"
	"github.com/imamik/k3stage/internal/node"
	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning"
	"github.com/imamik/k3stage/internal/provisioning/cluster"
	"github.com/imamik/k3stage/internal/provisioning/host"
	"github.com/imamik/k3stage/internal/provisioning/network"
	"github.com/imamik/k3stage/internal/provisioning/platform"
	"github.com/imamik/k3stage/internal/ui/tui"
	"github.com/imamik/k3stage/internal/util/prerequisites"
)

// RunOptions are the flags of the run command.
type RunOptions struct {
	ConfigPath string
	EnvFile    string
	// Hostname overrides the machine's own name.
	Hostname string
	Fresh    bool
	Reboot   bool
	TUI      bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadEnvFile overlays credentials from the env file.
	loadEnvFile = config.LoadEnvFile

	// loadConfig loads and validates the inventory.
	loadConfig = config.Load

	// localHostname reads the machine's inventory name.
	localHostname = node.LocalHostname

	// checkNode verifies the host tools every stage relies on.
	checkNode = func() error {
		return prerequisites.CheckNode().Error()
	}

	// openLog opens the durable log file.
	openLog = logging.Open

	// newRunner creates the local command runner.
	newRunner = func(log io.Writer) shell.Runner {
		return shell.NewLocalRunner(log)
	}

	// loadCheckpoint reads persisted stage progress.
	loadCheckpoint = provisioning.LoadCheckpoint

	// newStages builds the stage sequence.
	newStages = defaultStages

	// runTUI wraps a run in the progress view.
	runTUI = tui.Run

	// stdout is where operator output goes.
	stdout io.Writer = os.Stdout
)

// defaultStages returns the full run in order.
func defaultStages() []provisioning.Stage {
	return []provisioning.Stage{
		host.NewPackagesStage(),
		network.NewStage(),
		cluster.NewJoinStage(),
		cluster.NewReadinessStage(),
		platform.NewStage(),
		provisioning.NewReportStage(),
	}
}

// Run brings this machine into the cluster.
//
// The workflow:
//  1. Loads the env file and the inventory
//  2. Resolves this machine's identity (fatal when it is not listed)
//  3. Checks the host tools
//  4. Opens the durable log and loads the checkpoint
//  5. Runs the stages, optionally behind the progress view
//
// Nothing on the host is changed before the identity is resolved.
func Run(ctx context.Context, opts RunOptions) error {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return err
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()

	id, err := resolveIdentity(cfg, opts.Hostname)
	if err != nil {
		return err
	}

	if err := checkNode(); err != nil {
		return err
	}

	log, err := openLog(cfg.Paths.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()
	log.InstallGlobal()

	checkpoint, err := loadCheckpoint(cfg.Paths.StateDir, id, opts.Fresh)
	if err != nil {
		return err
	}

	stages := newStages()
	execute := func(ctx context.Context, observer provisioning.Observer) error {
		pctx := provisioning.NewContext(ctx, cfg, id, newRunner(log.Writer()), observer)
		pctx.Options = provisioning.Options{Fresh: opts.Fresh, Reboot: opts.Reboot}
		pctx.Checkpoint = checkpoint
		pctx.LogFile = log.Path()
		return provisioning.RunStages(pctx, stages)
	}

	if !opts.TUI {
		return execute(ctx, provisioning.NewConsoleObserver(stdout, log.Logger))
	}

	model := tui.NewRunModel(id.Name(), string(id.Role()), stageNames(stages))
	return runTUI(ctx, model, provisioning.NewConsoleObserver(io.Discard, log.Logger), execute)
}

// resolveIdentity matches the override or the local hostname against the
// inventory.
func resolveIdentity(cfg *config.Config, override string) (node.Identity, error) {
	name := override
	if name == "" {
		var err error
		name, err = localHostname(cfg)
		if err != nil {
			return node.Identity{}, err
		}
	}
	id, err := node.Resolve(name, cfg)
	if err != nil {
		return node.Identity{}, fmt.Errorf("cannot determine this node's role: %w", err)
	}
	return id, nil
}

func stageNames(stages []provisioning.Stage) []string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.Name())
	}
	return names
}
