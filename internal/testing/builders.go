package testing

import (
	"slices"

	"github.com/imamik/k3stage/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with sensible defaults and an
// empty inventory.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.Config{
			Cluster: config.Cluster{
				ServerPort:      config.KubeAPIPort,
				RancherHostname: "rancher.example.test",
				RancherReplicas: 1,
			},
			SSH: config.SSHConfig{
				User:    "root",
				Port:    22,
				KeyPath: "/root/.ssh/id_ed25519",
			},
			Network: config.NetworkConfig{
				Connection: "eth0",
				Prefix:     24,
				Gateway:    "10.0.0.1",
				DNS:        []string{"1.1.1.1"},
				ApplyDelay: 5,
			},
			Paths: config.PathsConfig{
				LogFile:  "/tmp/k3stage-test.log",
				StateDir: "/tmp/k3stage-test",
			},
		},
	}
}

// WithNode appends an inventory entry.
func (b *ConfigBuilder) WithNode(name, address string, role config.Role) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Nodes = append(newBuilder.cfg.Nodes, config.Node{Name: name, Address: address, Role: role})
	return newBuilder
}

// WithMaster appends a master node.
func (b *ConfigBuilder) WithMaster(name, address string) *ConfigBuilder {
	return b.WithNode(name, address, config.RoleMaster)
}

// WithWorker appends a worker node.
func (b *ConfigBuilder) WithWorker(name, address string) *ConfigBuilder {
	return b.WithNode(name, address, config.RoleWorker)
}

// WithInitNode designates the initializer explicitly.
func (b *ConfigBuilder) WithInitNode(name string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Cluster.InitNode = name
	return newBuilder
}

// WithRancher sets the management UI hostname and replica count.
func (b *ConfigBuilder) WithRancher(hostname string, replicas int) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Cluster.RancherHostname = hostname
	newBuilder.cfg.Cluster.RancherReplicas = replicas
	return newBuilder
}

// WithPackages replaces the prerequisite package list.
func (b *ConfigBuilder) WithPackages(pkgs ...string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Packages = pkgs
	return newBuilder
}

// WithEtcdS3 enables etcd snapshot upload.
func (b *ConfigBuilder) WithEtcdS3(endpoint, bucket string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.EtcdS3 = config.EtcdS3Config{
		Endpoint:  endpoint,
		Bucket:    bucket,
		Region:    "us-east-1",
		AccessKey: "access",
		SecretKey: "secret",
	}
	return newBuilder
}

// WithStateDir sets where checkpoints and kubeconfigs are written.
func (b *ConfigBuilder) WithStateDir(dir string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Paths.StateDir = dir
	return newBuilder
}

// Build returns the constructed config with defaults applied.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	cfg.ApplyDefaults()
	return &cfg
}

// clone creates a deep copy of the builder for immutability.
func (b *ConfigBuilder) clone() *ConfigBuilder {
	newCfg := b.cfg
	newCfg.Nodes = slices.Clone(b.cfg.Nodes)
	newCfg.Packages = slices.Clone(b.cfg.Packages)
	newCfg.Network.DNS = slices.Clone(b.cfg.Network.DNS)
	return &ConfigBuilder{cfg: newCfg}
}

// SingleMasterConfig returns a one-node cluster.
func SingleMasterConfig() *config.Config {
	return NewConfigBuilder().
		WithMaster("master-1", "10.0.0.11").
		Build()
}

// HAConfig returns three masters and two workers with master-1 as initializer.
func HAConfig() *config.Config {
	return NewConfigBuilder().
		WithMaster("master-1", "10.0.0.11").
		WithMaster("master-2", "10.0.0.12").
		WithMaster("master-3", "10.0.0.13").
		WithWorker("worker-1", "10.0.0.21").
		WithWorker("worker-2", "10.0.0.22").
		WithRancher("rancher.example.test", 3).
		Build()
}
