package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3stage/internal/addons"
	"github.com/imamik/k3stage/internal/addons/helm"
	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning"
	"github.com/imamik/k3stage/internal/provisioning/provisioningtest"
	testutil "github.com/imamik/k3stage/internal/testing"
	"github.com/imamik/k3stage/internal/util/retry"
)

type fakeHelm struct {
	deployed map[string]bool
	failOn   string
}

func (f *fakeHelm) EnsureRepository(string, string) (helm.RepoOutcome, error) {
	return helm.RepoAdded, nil
}

func (f *fakeHelm) Install(_ context.Context, _ helm.ChartSpec, release, _ string, _ helm.Values) (helm.InstallOutcome, error) {
	if release == f.failOn {
		return "", errors.New("context deadline exceeded")
	}
	if f.deployed[release] {
		return helm.AlreadyInstalled, nil
	}
	return helm.Installed, nil
}

type fakeWaiter struct{ err error }

func (f fakeWaiter) WaitForDaemonSetReady(context.Context, string, string, retry.PollPolicy) error {
	return f.err
}

type fakeMetrics struct {
	mu       sync.Mutex
	releases map[string]string
}

func (m *fakeMetrics) RecordStage(string, string, time.Duration) {}
func (m *fakeMetrics) RecordRun(string, time.Time)               {}
func (m *fakeMetrics) WriteTextfile(string) error                { return nil }
func (m *fakeMetrics) RecordRelease(release, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.releases == nil {
		m.releases = map[string]string{}
	}
	m.releases[release] = outcome
}

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "k3s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiVersion: v1\nkind: Config\n"), 0o600))
	return path
}

func newStage(h *fakeHelm, w fakeWaiter, kubeconfigs *[]string) *Stage {
	return &Stage{
		NewHelm: func(_ *provisioning.Context, kubeconfig []byte) (addons.HelmClient, error) {
			*kubeconfigs = append(*kubeconfigs, string(kubeconfig))
			return h, nil
		},
		NewWaiter: func([]byte) (addons.DaemonSetWaiter, error) { return w, nil },
		EnsureCLI: func(context.Context, shell.Runner) (string, bool, error) {
			return "/usr/local/bin/helm", false, nil
		},
	}
}

func TestStage_Applies(t *testing.T) {
	t.Parallel()
	cfg := testutil.HAConfig()
	stage := NewStage()

	for name, want := range map[string]bool{"master-1": true, "master-2": false, "worker-1": false} {
		ctx, _, _ := provisioningtest.NewContext(t, cfg, name)
		assert.Equal(t, want, stage.Applies(ctx), name)
	}
	assert.True(t, stage.Checkpointed())
}

func TestStage_Run(t *testing.T) {
	t.Parallel()
	var kubeconfigs []string
	stage := newStage(&fakeHelm{}, fakeWaiter{}, &kubeconfigs)
	ctx, _, obs := provisioningtest.NewContext(t, testutil.HAConfig(), "master-1")
	ctx.State.KubeconfigPath = writeKubeconfig(t)
	m := &fakeMetrics{}
	ctx.Metrics = m

	require.NoError(t, stage.Run(ctx))

	require.Len(t, kubeconfigs, 1)
	assert.Contains(t, kubeconfigs[0], "kind: Config")
	assert.Equal(t, []string{
		"kube-flannel/flannel",
		"longhorn-system/longhorn",
		"cert-manager/cert-manager",
		"cattle-system/rancher",
	}, obs.Resources(provisioning.EventResourceCreated))
	assert.Equal(t, []string{"/usr/local/bin/helm"}, obs.Resources(provisioning.EventResourceExists))
	require.Len(t, ctx.State.Releases, 4)
	assert.Equal(t, provisioning.ReleaseResult{Name: "rancher", Namespace: "cattle-system", Outcome: "installed"}, ctx.State.Releases[3])
	assert.Equal(t, "installed", m.releases["longhorn"])
	assert.Len(t, obs.Events(provisioning.EventWaiting), 1)
}

func TestStage_RunConverges(t *testing.T) {
	t.Parallel()
	var kubeconfigs []string
	h := &fakeHelm{deployed: map[string]bool{"flannel": true, "longhorn": true, "cert-manager": true, "rancher": true}}
	stage := newStage(h, fakeWaiter{}, &kubeconfigs)
	ctx, _, obs := provisioningtest.NewContext(t, testutil.HAConfig(), "master-1")
	ctx.State.KubeconfigPath = writeKubeconfig(t)

	require.NoError(t, stage.Run(ctx))

	assert.Empty(t, obs.Resources(provisioning.EventResourceCreated))
	assert.Len(t, obs.Resources(provisioning.EventResourceExists), 5)
	for _, r := range ctx.State.Releases {
		assert.Equal(t, "already installed", r.Outcome, r.Name)
	}
}

func TestStage_ReleaseFailure(t *testing.T) {
	t.Parallel()
	var kubeconfigs []string
	stage := newStage(&fakeHelm{failOn: "rancher"}, fakeWaiter{}, &kubeconfigs)
	ctx, _, _ := provisioningtest.NewContext(t, testutil.HAConfig(), "master-1")
	ctx.State.KubeconfigPath = writeKubeconfig(t)

	err := stage.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to install rancher")
	assert.Len(t, ctx.State.Releases, 3)
}

func TestStage_FlannelTimeout(t *testing.T) {
	t.Parallel()
	var kubeconfigs []string
	stage := newStage(&fakeHelm{}, fakeWaiter{err: retry.ErrTimeout}, &kubeconfigs)
	ctx, _, _ := provisioningtest.NewContext(t, testutil.HAConfig(), "master-1")
	ctx.State.KubeconfigPath = writeKubeconfig(t)

	err := stage.Run(ctx)
	require.ErrorIs(t, err, retry.ErrTimeout)
	assert.Empty(t, ctx.State.Releases)
}

func TestStage_MissingKubeconfig(t *testing.T) {
	t.Parallel()
	var kubeconfigs []string
	stage := newStage(&fakeHelm{}, fakeWaiter{}, &kubeconfigs)
	ctx, _, _ := provisioningtest.NewContext(t, testutil.HAConfig(), "master-1")
	ctx.State.KubeconfigPath = filepath.Join(t.TempDir(), "absent.yaml")

	err := stage.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read kubeconfig")
	assert.Empty(t, kubeconfigs)
}

func TestStage_HelmCLIFailure(t *testing.T) {
	t.Parallel()
	var kubeconfigs []string
	stage := newStage(&fakeHelm{}, fakeWaiter{}, &kubeconfigs)
	stage.EnsureCLI = func(context.Context, shell.Runner) (string, bool, error) {
		return "", false, errors.New("failed to install helm: exit status 6")
	}
	ctx, _, _ := provisioningtest.NewContext(t, testutil.HAConfig(), "master-1")
	ctx.State.KubeconfigPath = writeKubeconfig(t)

	require.Error(t, stage.Run(ctx))
	assert.Empty(t, kubeconfigs)
}
