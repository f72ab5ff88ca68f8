package addons

import (
	"github.com/imamik/k3stage/internal/addons/helm"
	"github.com/imamik/k3stage/internal/config"
)

// Namespaces the platform releases are installed into.
const (
	NamespaceFlannel     = "kube-flannel"
	NamespaceLonghorn    = "longhorn-system"
	NamespaceCertManager = "cert-manager"
	NamespaceRancher     = "cattle-system"
)

// FlannelSelector matches the flannel DaemonSet pods.
const FlannelSelector = "app=flannel"

// Release is one platform chart installation.
type Release struct {
	Name      string
	Namespace string
	Chart     helm.ChartSpec
	Values    helm.Values

	// WaitDaemonSet is a label selector of a DaemonSet that must be fully
	// ready before the next release is installed.
	WaitDaemonSet string
}

// Releases returns the platform releases for cfg in install order.
func Releases(cfg *config.Config) []Release {
	p := cfg.Platform
	return []Release{
		{
			Name:          helm.ChartFlannel,
			Namespace:     NamespaceFlannel,
			Chart:         helm.GetChartSpec(helm.ChartFlannel, p.Flannel),
			Values:        buildFlannelValues(cfg),
			WaitDaemonSet: FlannelSelector,
		},
		{
			Name:      helm.ChartLonghorn,
			Namespace: NamespaceLonghorn,
			Chart:     helm.GetChartSpec(helm.ChartLonghorn, p.Longhorn.ChartConfig),
			Values:    buildLonghornValues(cfg),
		},
		{
			Name:      helm.ChartCertManager,
			Namespace: NamespaceCertManager,
			Chart:     helm.GetChartSpec(helm.ChartCertManager, p.CertManager),
			Values:    buildCertManagerValues(cfg),
		},
		{
			Name:      helm.ChartRancher,
			Namespace: NamespaceRancher,
			Chart:     helm.GetChartSpec(helm.ChartRancher, p.Rancher.ChartConfig),
			Values:    buildRancherValues(cfg),
		},
	}
}

// buildFlannelValues points flannel at the K3s cluster CIDR.
func buildFlannelValues(cfg *config.Config) helm.Values {
	return helm.Values{
		"podCidr": cfg.K3s.ClusterCIDR,
		"flannel": helm.Values{
			"backend": "vxlan",
		},
	}
}

// buildLonghornValues sizes replication to the cluster.
func buildLonghornValues(cfg *config.Config) helm.Values {
	replicas := cfg.Platform.Longhorn.Replicas
	return helm.Values{
		"persistence": helm.Values{
			"defaultClass":             true,
			"defaultClassReplicaCount": replicas,
		},
		"defaultSettings": helm.Values{
			"defaultReplicaCount":                 replicas,
			"allowCollectingLonghornUsageMetrics": false,
			"upgradeChecker":                      false,
		},
		"preUpgradeChecker": helm.Values{
			"upgradeVersionCheck": false,
		},
	}
}

func buildCertManagerValues(cfg *config.Config) helm.Values {
	replicas := 1
	if len(cfg.Masters()) > 1 {
		replicas = 2
	}
	return helm.Values{
		"crds":         helm.Values{"enabled": true},
		"replicaCount": replicas,
		"webhook":      helm.Values{"replicaCount": replicas},
		"cainjector":   helm.Values{"replicaCount": replicas},
	}
}

// buildRancherValues serves Rancher on the configured hostname with a
// self-signed certificate issued through cert-manager.
func buildRancherValues(cfg *config.Config) helm.Values {
	values := helm.Values{
		"hostname": cfg.Cluster.RancherHostname,
		"replicas": cfg.Cluster.RancherReplicas,
		"ingress": helm.Values{
			"tls": helm.Values{"source": "rancher"},
		},
	}
	if pw := cfg.Platform.Rancher.BootstrapPassword; pw != "" {
		values["bootstrapPassword"] = pw
	}
	return values
}
