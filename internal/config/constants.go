package config

// Default locations and well-known values.
const (
	// DefaultConfigPath is where `k3stage run` looks for the inventory.
	DefaultConfigPath = "/etc/k3stage/cluster.conf"

	// DefaultEnvFile holds optional credential overrides.
	DefaultEnvFile = "/etc/k3stage/k3stage.env"

	// KubeAPIPort is the standard Kubernetes API server port.
	KubeAPIPort = 6443

	DefaultRancherReplicas = 3
	DefaultSSHPort         = 22
	DefaultSSHUser         = "root"
	DefaultConnection      = "eth0"
	DefaultPrefixLength    = 24
	DefaultApplyDelay      = 5
	DefaultClusterCIDR     = "10.42.0.0/16"
	DefaultInstallScript   = "https://get.k3s.io"

	DefaultLogFile  = "/var/log/k3stage.log"
	DefaultStateDir = "/var/lib/k3stage"
)

// DefaultPackages are installed on every node before K3s.
var DefaultPackages = []string{"curl", "jq", "open-iscsi", "nfs-client"}
