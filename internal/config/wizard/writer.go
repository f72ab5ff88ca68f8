package wizard

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/k3stage/internal/config"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WriteConfig writes the config to a YAML file with a descriptive header.
// If fullOutput is false, only essential non-default values are written.
func WriteConfig(cfg *config.Config, outputPath string, fullOutput bool) error {
	var yamlBytes []byte
	var err error

	if fullOutput {
		yamlBytes, err = config.MarshalYAML(cfg)
	} else {
		yamlBytes, err = yaml.Marshal(buildMinimalConfig(cfg))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath, fullOutput))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// MinimalConfig represents the minimal configuration for YAML output.
// Field names match config.Config so the file loads unchanged.
type MinimalConfig struct {
	Nodes    []config.Node        `yaml:"nodes"`
	Cluster  MinimalClusterConfig `yaml:"cluster"`
	SSH      *MinimalSSHConfig    `yaml:"ssh,omitempty"`
	Network  MinimalNetworkConfig `yaml:"network"`
	Packages []string             `yaml:"packages,omitempty"`
	K3s      *MinimalK3sConfig    `yaml:"k3s,omitempty"`
	EtcdS3   *MinimalEtcdS3Config `yaml:"etcd_s3,omitempty"`
}

// MinimalClusterConfig contains essential cluster settings.
type MinimalClusterConfig struct {
	InitNode        string `yaml:"init_node"`
	RancherHostname string `yaml:"rancher_hostname"`
	RancherReplicas int    `yaml:"rancher_replicas,omitempty"`
}

// MinimalSSHConfig contains non-default SSH settings.
type MinimalSSHConfig struct {
	User    string `yaml:"user,omitempty"`
	KeyPath string `yaml:"key_path,omitempty"`
}

// MinimalNetworkConfig contains the static addressing settings.
type MinimalNetworkConfig struct {
	Connection string   `yaml:"connection,omitempty"`
	Prefix     int      `yaml:"prefix,omitempty"`
	Gateway    string   `yaml:"gateway,omitempty"`
	DNS        []string `yaml:"dns,omitempty"`
}

// MinimalK3sConfig contains non-default installer settings.
type MinimalK3sConfig struct {
	Channel     string `yaml:"channel,omitempty"`
	ClusterCIDR string `yaml:"cluster_cidr,omitempty"`
}

// MinimalEtcdS3Config contains the snapshot target. Credentials stay in the
// environment.
type MinimalEtcdS3Config struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region,omitempty"`
}

// buildMinimalConfig drops values equal to their defaults.
func buildMinimalConfig(cfg *config.Config) *MinimalConfig {
	minCfg := &MinimalConfig{
		Nodes: cfg.Nodes,
		Cluster: MinimalClusterConfig{
			InitNode:        cfg.Cluster.InitNode,
			RancherHostname: cfg.Cluster.RancherHostname,
		},
		Network: MinimalNetworkConfig{
			Gateway: cfg.Network.Gateway,
			DNS:     cfg.Network.DNS,
		},
	}

	if cfg.Cluster.RancherReplicas != config.DefaultRancherReplicas {
		minCfg.Cluster.RancherReplicas = cfg.Cluster.RancherReplicas
	}

	ssh := MinimalSSHConfig{}
	if cfg.SSH.User != config.DefaultSSHUser {
		ssh.User = cfg.SSH.User
	}
	if cfg.SSH.KeyPath != "" {
		ssh.KeyPath = cfg.SSH.KeyPath
	}
	if ssh != (MinimalSSHConfig{}) {
		minCfg.SSH = &ssh
	}

	if cfg.Network.Connection != config.DefaultConnection {
		minCfg.Network.Connection = cfg.Network.Connection
	}
	if cfg.Network.Prefix != config.DefaultPrefixLength {
		minCfg.Network.Prefix = cfg.Network.Prefix
	}

	if !slices.Equal(cfg.Packages, config.DefaultPackages) {
		minCfg.Packages = cfg.Packages
	}

	k3s := MinimalK3sConfig{Channel: cfg.K3s.Channel}
	if cfg.K3s.ClusterCIDR != config.DefaultClusterCIDR {
		k3s.ClusterCIDR = cfg.K3s.ClusterCIDR
	}
	if k3s != (MinimalK3sConfig{}) {
		minCfg.K3s = &k3s
	}

	if cfg.EtcdS3.Enabled() {
		minCfg.EtcdS3 = &MinimalEtcdS3Config{
			Endpoint: cfg.EtcdS3.Endpoint,
			Bucket:   cfg.EtcdS3.Bucket,
			Region:   cfg.EtcdS3.Region,
		}
	}

	return minCfg
}

// generateHeader creates the YAML file header comment.
func generateHeader(outputPath string, fullOutput bool) string {
	mode := "minimal"
	note := "\n# Note: This is a minimal config. Use --full flag for all options."
	if fullOutput {
		mode = "full"
		note = ""
	}
	return fmt.Sprintf(`# k3stage cluster configuration
# Generated by: k3stage init
# Generated at: %s
# Output mode: %s%s
#
# Copy this file to every node, then on each node run:
#   k3stage prepare <node-name> -c %s
#   k3stage run -c %s
`, time.Now().Format(time.RFC3339), mode, note, outputPath, outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

// defaultConfirmOverwrite is the default implementation that prompts via stdin.
func defaultConfirmOverwrite(path string) (bool, error) {
	fmt.Printf("\nFile already exists: %s\n", path)
	fmt.Print("Overwrite? (y/n): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
