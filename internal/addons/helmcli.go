package addons

import (
	"context"
	"fmt"

	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/util/prerequisites"
)

// GetHelmScript is the upstream helm 3 installer.
const GetHelmScript = "https://raw.githubusercontent.com/helm/helm/main/scripts/get-helm-3"

// EnsureHelmCLI makes the helm binary available for operators. It returns
// the binary path and whether it had to be installed.
func EnsureHelmCLI(ctx context.Context, runner shell.Runner, checker *prerequisites.Checker) (string, bool, error) {
	tools := []prerequisites.Tool{prerequisites.HelmTool()}
	if path, ok := checker.Check(tools).Path("helm"); ok {
		return path, false, nil
	}

	if _, err := runner.Run(ctx, shell.Script("curl -fsSL "+GetHelmScript+" | bash")); err != nil {
		return "", false, fmt.Errorf("failed to install helm: %w", err)
	}

	results := checker.Check(tools)
	path, ok := results.Path("helm")
	if !ok {
		return "", false, fmt.Errorf("helm installer finished but %w", results.Error())
	}
	return path, true, nil
}
