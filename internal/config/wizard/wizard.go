package wizard

import (
	"context"
	"fmt"

	"github.com/imamik/k3stage/internal/config"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	// Inventory
	Nodes    []config.Node
	InitNode string

	// Rancher
	RancherHostname string
	RancherReplicas int

	// SSH access to the initializer
	SSHUser    string
	SSHKeyPath string

	// Static addressing
	Connection string
	Prefix     int
	Gateway    string
	DNS        []string

	// Advanced options (only set in advanced mode)
	AdvancedOptions *AdvancedOptions
}

// AdvancedOptions holds advanced configuration options.
type AdvancedOptions struct {
	K3sChannel  string
	ClusterCIDR string
	Packages    []string

	// Etcd snapshot upload
	EtcdS3         bool
	EtcdS3Endpoint string
	EtcdS3Bucket   string
	EtcdS3Region   string
}

// RunWizard runs the interactive configuration wizard.
// If advanced is true, additional configuration options are shown.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, advanced bool) (*WizardResult, error) {
	result := &WizardResult{}

	if err := runInventoryGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}

	if err := runClusterGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}

	if err := runAccessGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("ssh access: %w", err)
	}

	if err := runNetworkGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}

	if advanced {
		advOpts := &AdvancedOptions{}

		if err := runK3sGroup(ctx, advOpts); err != nil {
			return nil, fmt.Errorf("k3s: %w", err)
		}

		if err := runSnapshotGroup(ctx, advOpts); err != nil {
			return nil, fmt.Errorf("etcd snapshots: %w", err)
		}

		result.AdvancedOptions = advOpts
	}

	return result, nil
}

// masterNames returns the names of master entries in order.
func masterNames(nodes []config.Node) []string {
	var names []string
	for _, n := range nodes {
		if n.Role == config.RoleMaster {
			names = append(names, n.Name)
		}
	}
	return names
}
