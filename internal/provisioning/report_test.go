package provisioning

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3stage/internal/metrics"
)

func TestReportStage_Initializer(t *testing.T) {
	t.Parallel()
	ctx, obs := newTestContext(t, "master-1")
	ctx.State.StartedAt = time.Now().Add(-time.Minute)
	ctx.State.KubeconfigPath = "/etc/rancher/k3s/k3s.yaml"
	ctx.State.Releases = []ReleaseResult{{Name: "flannel", Outcome: "installed"}, {Name: "rancher", Outcome: "already installed"}}
	ctx.Config.Paths.MetricsTextfileDir = t.TempDir()

	require.NoError(t, NewReportStage().Run(ctx))

	rows := map[string]string{}
	for _, r := range obs.summary {
		rows[r.Label] = r.Value
	}
	assert.Equal(t, "master (initializer)", rows["Role"])
	assert.Equal(t, "https://10.0.0.11:6443", rows["Server"])
	assert.Equal(t, "https://rancher.example.test", rows["Rancher"])
	assert.Equal(t, "flannel (installed), rancher (already installed)", rows["Platform"])
	assert.Equal(t, "1m0s", rows["Duration"])

	_, err := os.Stat(filepath.Join(ctx.Config.Paths.MetricsTextfileDir, metrics.TextfileName))
	assert.NoError(t, err)
}

func TestReportStage_Worker(t *testing.T) {
	t.Parallel()
	ctx, obs := newTestContext(t, "worker-1")
	ctx.State.StartedAt = time.Now()

	require.NoError(t, NewReportStage().Run(ctx))

	for _, r := range obs.summary {
		assert.NotEqual(t, "Rancher", r.Label)
		if r.Label == "Role" {
			assert.Equal(t, "worker", r.Value)
		}
	}
}
