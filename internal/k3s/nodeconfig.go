package k3s

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/node"
)

// NodeConfig is the K3s config.yaml for one node. Keys mirror the K3s CLI
// flags.
type NodeConfig struct {
	NodeName             string   `json:"node-name"`
	NodeIP               string   `json:"node-ip"`
	TLSSAN               []string `json:"tls-san,omitempty"`
	FlannelBackend       string   `json:"flannel-backend,omitempty"`
	DisableNetworkPolicy bool     `json:"disable-network-policy,omitempty"`
	ClusterCIDR          string   `json:"cluster-cidr,omitempty"`
	WriteKubeconfigMode  string   `json:"write-kubeconfig-mode,omitempty"`

	EtcdS3          bool   `json:"etcd-s3,omitempty"`
	EtcdS3Endpoint  string `json:"etcd-s3-endpoint,omitempty"`
	EtcdS3Bucket    string `json:"etcd-s3-bucket,omitempty"`
	EtcdS3Region    string `json:"etcd-s3-region,omitempty"`
	EtcdS3Folder    string `json:"etcd-s3-folder,omitempty"`
	EtcdS3AccessKey string `json:"etcd-s3-access-key,omitempty"`
	EtcdS3SecretKey string `json:"etcd-s3-secret-key,omitempty"`
}

// BuildNodeConfig derives the node's K3s config from the inventory. Flannel is
// installed from its chart, so the embedded backend is disabled on servers.
func BuildNodeConfig(id node.Identity, cfg *config.Config) NodeConfig {
	nc := NodeConfig{
		NodeName: id.Name(),
		NodeIP:   id.Address(),
	}
	if !id.IsMaster() {
		return nc
	}

	nc.TLSSAN = []string{id.Address(), id.Name()}
	nc.FlannelBackend = "none"
	nc.DisableNetworkPolicy = true
	nc.ClusterCIDR = cfg.K3s.ClusterCIDR
	nc.WriteKubeconfigMode = defaultKubeconfigMode

	if s3 := cfg.EtcdS3; s3.Enabled() {
		nc.EtcdS3 = true
		nc.EtcdS3Endpoint = s3.Endpoint
		nc.EtcdS3Bucket = s3.Bucket
		nc.EtcdS3Region = s3.Region
		nc.EtcdS3Folder = s3.Folder
		nc.EtcdS3AccessKey = s3.AccessKey
		nc.EtcdS3SecretKey = s3.SecretKey
	}
	return nc
}

// Render serializes the config as YAML.
func (nc NodeConfig) Render() ([]byte, error) {
	data, err := yaml.Marshal(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to render k3s config: %w", err)
	}
	return data, nil
}
