package host

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning"
)

const stageName = "packages"

// RebootDelay is passed to shutdown when --reboot is set.
const RebootDelay = "+1"

// PackagesStage installs the configured packages.
type PackagesStage struct{}

// NewPackagesStage creates the packages stage.
func NewPackagesStage() *PackagesStage {
	return &PackagesStage{}
}

// Name implements provisioning.Stage.
func (s *PackagesStage) Name() string { return stageName }

// Checkpointed implements provisioning.Checkpointed.
func (s *PackagesStage) Checkpointed() bool { return true }

// Run implements provisioning.Stage.
func (s *PackagesStage) Run(ctx *provisioning.Context) error {
	missing, err := MissingPackages(ctx, ctx.Runner, ctx.Config.Packages)
	if err != nil {
		return err
	}
	for _, pkg := range ctx.Config.Packages {
		if !slices.Contains(missing, pkg) {
			provisioning.LogResourceExists(ctx.Observer, stageName, "package", pkg)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	args := append([]string{"--non-interactive", "pkg", "install"}, missing...)
	if _, err := ctx.Runner.Run(ctx, shell.Cmd("transactional-update", args...)); err != nil {
		return fmt.Errorf("failed to install %s: %w", strings.Join(missing, ", "), err)
	}
	for _, pkg := range missing {
		provisioning.LogResourceCreated(ctx.Observer, stageName, "package", pkg)
	}

	reason := fmt.Sprintf("installed %s into a new snapshot", strings.Join(missing, ", "))
	if ctx.Options.Reboot {
		if _, err := ctx.Runner.Run(ctx, shell.Cmd("shutdown", "-r", RebootDelay, "k3stage: activating package snapshot")); err != nil {
			return fmt.Errorf("failed to schedule reboot: %w", err)
		}
		return provisioning.Resume(reason, "the node reboots in one minute; run k3stage again once it is back")
	}
	return provisioning.Resume(reason, "reboot the node, then run k3stage again")
}

// MissingPackages returns the packages rpm does not report as installed,
// in input order.
func MissingPackages(ctx context.Context, runner shell.Runner, packages []string) ([]string, error) {
	var missing []string
	for _, pkg := range packages {
		_, err := runner.Run(ctx, shell.Cmd("rpm", "-q", pkg))
		if err == nil {
			continue
		}
		if _, exited := shell.ExitCode(err); !exited {
			return nil, fmt.Errorf("failed to query package %s: %w", pkg, err)
		}
		missing = append(missing, pkg)
	}
	return missing, nil
}
