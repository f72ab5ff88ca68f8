package config

import (
	"fmt"
	"strings"
)

// Role is the part a node plays in the cluster.
type Role string

// Node roles.
const (
	RoleMaster Role = "master"
	RoleWorker Role = "worker"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMaster || r == RoleWorker
}

// Node is a single inventory entry.
type Node struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Role    Role   `yaml:"role"`
}

// ParseNode parses a "name:ip:role" inventory triple.
func ParseNode(entry string) (Node, error) {
	parts := strings.Split(strings.TrimSpace(entry), ":")
	if len(parts) != 3 {
		return Node{}, fmt.Errorf("inventory entry %q: expected name:ip:role", entry)
	}
	return Node{
		Name:    strings.TrimSpace(parts[0]),
		Address: strings.TrimSpace(parts[1]),
		Role:    Role(strings.ToLower(strings.TrimSpace(parts[2]))),
	}, nil
}

// String renders the node back into inventory form.
func (n Node) String() string {
	return fmt.Sprintf("%s:%s:%s", n.Name, n.Address, n.Role)
}

// Cluster holds the cluster-wide settings.
type Cluster struct {
	InitNode        string `yaml:"init_node"`
	ServerPort      int    `yaml:"server_port"`
	RancherHostname string `yaml:"rancher_hostname"`
	RancherReplicas int    `yaml:"rancher_replicas"`
}

// SSHConfig controls how the initializer is reached for the join token.
type SSHConfig struct {
	User       string `yaml:"user"`
	Port       int    `yaml:"port"`
	KeyPath    string `yaml:"key_path"`
	KnownHosts string `yaml:"known_hosts"`

	// Password is only ever read from the environment.
	Password string `yaml:"-"`
}

// NetworkConfig describes the static address applied in the network stage.
type NetworkConfig struct {
	Connection string   `yaml:"connection"`
	Prefix     int      `yaml:"prefix"`
	Gateway    string   `yaml:"gateway"`
	DNS        []string `yaml:"dns"`
	// ApplyDelay is the number of seconds before the out-of-band apply fires.
	ApplyDelay int `yaml:"apply_delay"`
}

// K3sConfig tunes the K3s installer invocation.
type K3sConfig struct {
	Version       string `yaml:"version"`
	Channel       string `yaml:"channel"`
	ClusterCIDR   string `yaml:"cluster_cidr"`
	InstallScript string `yaml:"install_script"`
}

// ChartConfig overrides where a platform chart comes from.
type ChartConfig struct {
	Repository string `yaml:"repository"`
	Chart      string `yaml:"chart"`
	Version    string `yaml:"version"`
}

// LonghornConfig configures the storage chart.
type LonghornConfig struct {
	ChartConfig `yaml:",inline"`
	Replicas    int `yaml:"replicas"`
}

// RancherConfig configures the management UI chart.
type RancherConfig struct {
	ChartConfig       `yaml:",inline"`
	BootstrapPassword string `yaml:"bootstrap_password"`
}

// PlatformConfig groups the platform chart settings.
type PlatformConfig struct {
	Flannel     ChartConfig    `yaml:"flannel"`
	Longhorn    LonghornConfig `yaml:"longhorn"`
	CertManager ChartConfig    `yaml:"cert_manager"`
	Rancher     RancherConfig  `yaml:"rancher"`
}

// EtcdS3Config points K3s etcd snapshots at S3-compatible storage.
type EtcdS3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Folder    string `yaml:"folder"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Enabled reports whether snapshot upload is configured.
func (e EtcdS3Config) Enabled() bool {
	return e.Bucket != ""
}

// PathsConfig holds local file locations.
type PathsConfig struct {
	LogFile            string `yaml:"log_file"`
	StateDir           string `yaml:"state_dir"`
	MetricsTextfileDir string `yaml:"metrics_textfile_dir"`
}

// Config is the complete, validated inventory.
type Config struct {
	Nodes    []Node         `yaml:"nodes"`
	Cluster  Cluster        `yaml:"cluster"`
	SSH      SSHConfig      `yaml:"ssh"`
	Network  NetworkConfig  `yaml:"network"`
	Packages []string       `yaml:"packages"`
	K3s      K3sConfig      `yaml:"k3s"`
	Platform PlatformConfig `yaml:"platform"`
	EtcdS3   EtcdS3Config   `yaml:"etcd_s3"`
	Paths    PathsConfig    `yaml:"paths"`
}

// NodeByName returns the first node with the given name.
func (c *Config) NodeByName(name string) (Node, bool) {
	for _, n := range c.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// InitNode returns the designated initializer.
func (c *Config) InitNode() (Node, bool) {
	n, ok := c.NodeByName(c.Cluster.InitNode)
	if !ok || n.Role != RoleMaster {
		return Node{}, false
	}
	return n, true
}

// Masters returns all master nodes in inventory order.
func (c *Config) Masters() []Node {
	return c.nodesWithRole(RoleMaster)
}

// Workers returns all worker nodes in inventory order.
func (c *Config) Workers() []Node {
	return c.nodesWithRole(RoleWorker)
}

func (c *Config) nodesWithRole(role Role) []Node {
	var out []Node
	for _, n := range c.Nodes {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// ServerURL is the supervisor URL other nodes join through.
func (c *Config) ServerURL() string {
	init, _ := c.InitNode()
	return fmt.Sprintf("https://%s:%d", init.Address, c.Cluster.ServerPort)
}
