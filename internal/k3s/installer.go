package k3s

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/k3stage/internal/platform/shell"
)

// Installer runs the K3s install script and manages its service.
type Installer struct {
	runner     shell.Runner
	configPath string
}

// NewInstaller creates an installer writing config to the default K3s path.
func NewInstaller(runner shell.Runner) *Installer {
	return &Installer{runner: runner, configPath: ConfigPath}
}

// WithConfigPath returns a copy writing config.yaml to path.
func (i *Installer) WithConfigPath(path string) *Installer {
	c := *i
	c.configPath = path
	return &c
}

// ConfigPath is where WriteConfig writes.
func (i *Installer) ConfigPath() string {
	return i.configPath
}

// WriteConfig renders nc to the K3s config path. The file may carry S3
// credentials and is written owner-only.
func (i *Installer) WriteConfig(nc NodeConfig) error {
	data, err := nc.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(i.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(i.configPath), err)
	}
	if err := os.WriteFile(i.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", i.configPath, err)
	}
	return nil
}

// Install runs the upstream install script for plan.
func (i *Installer) Install(ctx context.Context, plan Plan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid install plan: %w", err)
	}
	if _, err := i.runner.Run(ctx, plan.Command()); err != nil {
		return fmt.Errorf("k3s install (%s) failed: %w", plan.Mode, err)
	}
	return nil
}

// EnableService enables and starts the unit for plan.
func (i *Installer) EnableService(ctx context.Context, plan Plan) error {
	if _, err := i.runner.Run(ctx, shell.Cmd("systemctl", "enable", "--now", plan.Service())); err != nil {
		return fmt.Errorf("failed to start %s: %w", plan.Service(), err)
	}
	return nil
}

// ServiceActive reports whether the systemd unit is running. An inactive or
// unknown unit is not an error.
func (i *Installer) ServiceActive(ctx context.Context, service string) (bool, error) {
	out, err := i.runner.Run(ctx, shell.Cmd("systemctl", "is-active", service))
	if err != nil {
		if _, exited := shell.ExitCode(err); exited {
			return false, nil
		}
		return false, fmt.Errorf("failed to query %s: %w", service, err)
	}
	return strings.TrimSpace(out) == "active", nil
}
