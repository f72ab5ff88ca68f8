package wizard

import (
	"slices"

	"github.com/imamik/k3stage/internal/config"
)

// BuildConfig creates a Config struct from the wizard result. Defaults are
// applied so the result validates like a loaded file.
func BuildConfig(result *WizardResult) *config.Config {
	cfg := &config.Config{
		Nodes: slices.Clone(result.Nodes),
		Cluster: config.Cluster{
			InitNode:        result.InitNode,
			RancherHostname: result.RancherHostname,
			RancherReplicas: result.RancherReplicas,
		},
		SSH: config.SSHConfig{
			User:    result.SSHUser,
			KeyPath: result.SSHKeyPath,
		},
		Network: config.NetworkConfig{
			Connection: result.Connection,
			Prefix:     result.Prefix,
			Gateway:    result.Gateway,
			DNS:        slices.Clone(result.DNS),
		},
	}

	if result.AdvancedOptions != nil {
		applyAdvancedOptions(cfg, result.AdvancedOptions)
	}

	cfg.ApplyDefaults()
	return cfg
}

// applyAdvancedOptions applies advanced options to the config.
func applyAdvancedOptions(cfg *config.Config, opts *AdvancedOptions) {
	cfg.K3s.Channel = opts.K3sChannel
	cfg.K3s.ClusterCIDR = opts.ClusterCIDR
	if len(opts.Packages) > 0 {
		cfg.Packages = slices.Clone(opts.Packages)
	}

	if opts.EtcdS3 {
		cfg.EtcdS3 = config.EtcdS3Config{
			Endpoint: opts.EtcdS3Endpoint,
			Bucket:   opts.EtcdS3Bucket,
			Region:   opts.EtcdS3Region,
		}
	}
}
