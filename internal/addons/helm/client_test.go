package helm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
	kubefake "helm.sh/helm/v3/pkg/kube/fake"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage"
	"helm.sh/helm/v3/pkg/storage/driver"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
    insecure-skip-tls-verify: true
  name: k3s
contexts:
- context:
    cluster: k3s
    user: admin
  name: default
current-context: default
users:
- name: admin
  user:
    token: test-token
`

func testChart(name string) *chart.Chart {
	return &chart.Chart{
		Metadata: &chart.Metadata{APIVersion: "v2", Name: name, Version: "1.0.0"},
		Templates: []*chart.File{{
			Name: "templates/configmap.yaml",
			Data: []byte("apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: {{ .Release.Name }}\ndata:\n  replicas: {{ .Values.replicas | quote }}\n"),
		}},
	}
}

type fixture struct {
	client  *Client
	store   *storage.Storage
	loads   []ChartSpec
	failErr error
}

// newFixture builds a Client whose releases live in memory and whose
// cluster writes are discarded.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := driver.NewMemory()
	mem.SetNamespace("")
	f := &fixture{store: storage.Init(mem)}

	c, err := NewClient([]byte(testKubeconfig),
		WithTimeout(time.Second),
		WithChartLoader(func(spec ChartSpec) (*chart.Chart, error) {
			f.loads = append(f.loads, spec)
			return testChart(spec.Name), nil
		}))
	require.NoError(t, err)
	c.newConfig = func(string) (*action.Configuration, error) {
		kube := &kubefake.FailingKubeClient{PrintingKubeClient: kubefake.PrintingKubeClient{Out: io.Discard}}
		kube.CreateError = f.failErr
		return &action.Configuration{
			Releases:     f.store,
			KubeClient:   kube,
			Capabilities: chartutil.DefaultCapabilities,
			Log:          func(string, ...any) {},
		}, nil
	}
	f.client = c
	return f
}

func (f *fixture) seed(t *testing.T, name, namespace string, version int, status release.Status) {
	t.Helper()
	require.NoError(t, f.store.Create(&release.Release{
		Name:      name,
		Namespace: namespace,
		Version:   version,
		Info:      &release.Info{Status: status},
		Chart:     testChart(name),
	}))
}

func TestNewClient_RequiresKubeconfig(t *testing.T) {
	t.Parallel()
	_, err := NewClient(nil)
	require.Error(t, err)
}

func TestInstall_Fresh(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	spec := DefaultChartSpecs[ChartLonghorn]

	outcome, err := f.client.Install(context.Background(), spec, "longhorn", "longhorn-system", Values{"replicas": 3})
	require.NoError(t, err)
	assert.Equal(t, Installed, outcome)
	assert.Equal(t, []ChartSpec{spec}, f.loads)

	rel, err := f.store.Last("longhorn")
	require.NoError(t, err)
	assert.Equal(t, release.StatusDeployed, rel.Info.Status)
	assert.Equal(t, "longhorn-system", rel.Namespace)
	assert.Equal(t, 3, rel.Config["replicas"])

	status, err := f.client.ReleaseStatus("longhorn-system", "longhorn")
	require.NoError(t, err)
	assert.Equal(t, "deployed", status)
}

func TestInstall_AlreadyDeployed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed(t, "rancher", "cattle-system", 1, release.StatusSuperseded)
	f.seed(t, "rancher", "cattle-system", 2, release.StatusDeployed)

	outcome, err := f.client.Install(context.Background(), DefaultChartSpecs[ChartRancher], "rancher", "cattle-system", nil)
	require.NoError(t, err)
	assert.Equal(t, AlreadyInstalled, outcome)
	assert.Empty(t, f.loads, "a deployed release is never reloaded")
}

func TestInstall_ReplacesFailedRelease(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed(t, "cert-manager", "cert-manager", 1, release.StatusFailed)

	outcome, err := f.client.Install(context.Background(), DefaultChartSpecs[ChartCertManager], "cert-manager", "cert-manager", nil)
	require.NoError(t, err)
	assert.Equal(t, Installed, outcome)
}

func TestInstall_PendingReleaseIsBusy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed(t, "flannel", "kube-flannel", 1, release.StatusPendingInstall)

	_, err := f.client.Install(context.Background(), DefaultChartSpecs[ChartFlannel], "flannel", "kube-flannel", nil)
	require.ErrorIs(t, err, ErrReleaseBusy)
}

func TestInstall_ClusterErrorIsFatal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.failErr = errors.New("admission webhook denied the request")

	_, err := f.client.Install(context.Background(), DefaultChartSpecs[ChartFlannel], "flannel", "kube-flannel", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "helm install flannel failed")
}

func TestInstall_ChartLoadError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.client.loadChart = func(ChartSpec) (*chart.Chart, error) {
		return nil, errors.New("index not found")
	}

	_, err := f.client.Install(context.Background(), DefaultChartSpecs[ChartRancher], "rancher", "cattle-system", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rancher-stable/rancher")
}

func TestReleaseStatus_NotInstalled(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	status, err := f.client.ReleaseStatus("longhorn-system", "longhorn")
	require.NoError(t, err)
	assert.Equal(t, StatusNotInstalled, status)
}

func TestIsAlreadyInstalled(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"driver sentinel", fmt.Errorf("create: %w", driver.ErrReleaseExists), true},
		{"name in use", errors.New("INSTALLATION FAILED: cannot re-use a name that is still in use"), true},
		{"other", errors.New("context deadline exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsAlreadyInstalled(tt.err))
		})
	}
}

func TestActionConfig_CachedPerNamespace(t *testing.T) {
	t.Parallel()
	c, err := NewClient([]byte(testKubeconfig))
	require.NoError(t, err)
	calls := map[string]int{}
	c.newConfig = func(ns string) (*action.Configuration, error) {
		calls[ns]++
		return &action.Configuration{}, nil
	}

	for _, ns := range []string{"a", "b", "a"} {
		_, err := c.actionConfig(ns)
		require.NoError(t, err)
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, calls)
}
