// Package prerequisites checks that the host tools the bootstrap stages
// shell out to are installed.
package prerequisites

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tool represents a host tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// Package is the openSUSE package providing the tool.
	Package string
}

// NodeTools returns the tools every bootstrap run depends on.
func NodeTools() []Tool {
	return []Tool{
		{Name: "curl", Required: true, Description: "Downloads the K3s and Helm installers", Package: "curl"},
		{Name: "systemctl", Required: true, Description: "Manages the K3s services", Package: "systemd"},
		{Name: "ip", Required: true, Description: "Lists bound addresses", Package: "iproute2"},
		{Name: "nmcli", Required: true, Description: "Assigns the static address", Package: "NetworkManager"},
		{Name: "rpm", Required: true, Description: "Queries installed packages", Package: "rpm"},
		{Name: "transactional-update", Required: true, Description: "Installs packages into a new snapshot", Package: "transactional-update"},
	}
}

// HelmTool is the helm CLI, installed on the initializer for operators.
func HelmTool() Tool {
	return Tool{Name: "helm", Required: true, Description: "Lets operators manage the platform releases", Package: "helm"}
}

// OptionalTools returns tools that are useful but not required.
func OptionalTools() []Tool {
	return []Tool{
		{Name: "kubectl", Required: false, Description: "Useful for debugging; K3s also provides `k3s kubectl`", Package: "kubernetes-client"},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (package %s)", tool.Name, tool.Package))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Path returns the resolved path of a found tool.
func (r *CheckResults) Path(name string) (string, bool) {
	for _, res := range r.Results {
		if res.Tool.Name == name && res.Found {
			return res.Path, true
		}
	}
	return "", false
}

// Checker resolves tools on the host.
type Checker struct {
	// LookPath defaults to exec.LookPath.
	LookPath func(name string) (string, error)
	// Version reports a tool's version; nil skips version probing.
	Version func(path string) string
}

// DefaultChecker looks tools up in PATH and probes their version.
func DefaultChecker() *Checker {
	return &Checker{LookPath: exec.LookPath, Version: toolVersion}
}

// Check verifies that the specified tools are available.
func (c *Checker) Check(tools []Tool) *CheckResults {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := lookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			if c.Version != nil {
				result.Version = c.Version(path)
			}
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// Check verifies tools with the default checker.
func Check(tools []Tool) *CheckResults {
	return DefaultChecker().Check(tools)
}

// CheckNode checks the tools a bootstrap run needs.
func CheckNode() *CheckResults {
	return Check(NodeTools())
}

// versionProbeTimeout bounds a single version probe.
const versionProbeTimeout = 2 * time.Second

// toolVersion attempts to get the version of a tool.
// Returns empty string if version cannot be determined.
func toolVersion(path string) string {
	for _, flag := range []string{"--version", "version"} {
		ctx, cancel := context.WithTimeout(context.Background(), versionProbeTimeout)
		// #nosec G204 - path comes from LookPath over trusted Tool definitions
		output, err := exec.CommandContext(ctx, path, flag).Output()
		cancel()
		if err == nil {
			lines := strings.Split(string(output), "\n")
			if len(lines) > 0 {
				return strings.TrimSpace(lines[0])
			}
		}
	}

	return ""
}
