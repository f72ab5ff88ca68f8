package addons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3stage/internal/addons/helm"
	testutil "github.com/imamik/k3stage/internal/testing"
)

func TestReleases_Order(t *testing.T) {
	t.Parallel()
	releases := Releases(testutil.HAConfig())

	var names, namespaces []string
	for _, r := range releases {
		names = append(names, r.Name)
		namespaces = append(namespaces, r.Namespace)
	}
	assert.Equal(t, []string{"flannel", "longhorn", "cert-manager", "rancher"}, names)
	assert.Equal(t, []string{"kube-flannel", "longhorn-system", "cert-manager", "cattle-system"}, namespaces)
	assert.Equal(t, "app=flannel", releases[0].WaitDaemonSet)
	for _, r := range releases[1:] {
		assert.Empty(t, r.WaitDaemonSet, r.Name)
	}
}

func TestReleases_VersionOverride(t *testing.T) {
	t.Parallel()
	cfg := testutil.HAConfig()
	cfg.Platform.Rancher.Version = "2.11.1"
	cfg.Platform.CertManager.Version = "v1.17.2"

	releases := Releases(cfg)
	assert.Equal(t, "2.11.1", releases[3].Chart.Version)
	assert.Equal(t, "v1.17.2", releases[2].Chart.Version)
	assert.Empty(t, releases[1].Chart.Version)
}

func TestBuildFlannelValues(t *testing.T) {
	t.Parallel()
	cfg := testutil.HAConfig()
	cfg.K3s.ClusterCIDR = "10.244.0.0/16"

	values := buildFlannelValues(cfg)
	assert.Equal(t, "10.244.0.0/16", values["podCidr"])
}

func TestBuildLonghornValues(t *testing.T) {
	t.Parallel()
	values := buildLonghornValues(testutil.HAConfig())

	persistence, ok := values["persistence"].(helm.Values)
	require.True(t, ok)
	assert.Equal(t, 3, persistence["defaultClassReplicaCount"])
	settings, ok := values["defaultSettings"].(helm.Values)
	require.True(t, ok)
	assert.Equal(t, 3, settings["defaultReplicaCount"])
	assert.Equal(t, false, settings["upgradeChecker"])
}

func TestBuildCertManagerValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		single   bool
		replicas int
	}{
		{"single master", true, 1},
		{"ha", false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testutil.HAConfig()
			if tt.single {
				cfg = testutil.SingleMasterConfig()
			}
			values := buildCertManagerValues(cfg)
			assert.Equal(t, helm.Values{"enabled": true}, values["crds"])
			assert.Equal(t, tt.replicas, values["replicaCount"])
		})
	}
}

func TestBuildRancherValues(t *testing.T) {
	t.Parallel()
	cfg := testutil.HAConfig()

	values := buildRancherValues(cfg)
	assert.Equal(t, "rancher.example.test", values["hostname"])
	assert.Equal(t, 3, values["replicas"])
	assert.NotContains(t, values, "bootstrapPassword")

	cfg.Platform.Rancher.BootstrapPassword = "s3cret"
	assert.Equal(t, "s3cret", buildRancherValues(cfg)["bootstrapPassword"])
}
