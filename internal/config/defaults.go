package config

import (
	"os"
	"path/filepath"
)

// ApplyDefaults fills every unset optional field.
func (c *Config) ApplyDefaults() {
	if c.Cluster.ServerPort == 0 {
		c.Cluster.ServerPort = KubeAPIPort
	}
	if c.Cluster.RancherReplicas == 0 {
		c.Cluster.RancherReplicas = DefaultRancherReplicas
	}
	if c.Cluster.InitNode == "" {
		// LoadShell rejects an empty init node before this runs.
		if masters := c.Masters(); len(masters) > 0 {
			c.Cluster.InitNode = masters[0].Name
		}
	}

	if c.SSH.User == "" {
		c.SSH.User = DefaultSSHUser
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = DefaultSSHPort
	}
	if c.SSH.KeyPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.SSH.KeyPath = filepath.Join(home, ".ssh", "id_rsa")
		}
	}

	if c.Network.Connection == "" {
		c.Network.Connection = DefaultConnection
	}
	if c.Network.Prefix == 0 {
		c.Network.Prefix = DefaultPrefixLength
	}
	if c.Network.ApplyDelay == 0 {
		c.Network.ApplyDelay = DefaultApplyDelay
	}

	if len(c.Packages) == 0 {
		c.Packages = append([]string(nil), DefaultPackages...)
	}

	if c.K3s.ClusterCIDR == "" {
		c.K3s.ClusterCIDR = DefaultClusterCIDR
	}
	if c.K3s.InstallScript == "" {
		c.K3s.InstallScript = DefaultInstallScript
	}

	if c.Platform.Longhorn.Replicas == 0 {
		c.Platform.Longhorn.Replicas = min(3, max(1, len(c.Nodes)))
	}

	if c.Paths.LogFile == "" {
		c.Paths.LogFile = DefaultLogFile
	}
	if c.Paths.StateDir == "" {
		c.Paths.StateDir = DefaultStateDir
	}
}
