package provisioning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3stage/internal/node"
	testutil "github.com/imamik/k3stage/internal/testing"
)

func resolve(t *testing.T, name string, builder *testutil.ConfigBuilder) node.Identity {
	t.Helper()
	id, err := node.Resolve(name, builder.Build())
	require.NoError(t, err)
	return id
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	id := resolve(t, "master-1", testutil.NewConfigBuilder().WithMaster("master-1", "10.0.0.11"))

	cp, err := LoadCheckpoint(dir, id, false)
	require.NoError(t, err)
	assert.Empty(t, cp.Completed)
	assert.Equal(t, filepath.Join(dir, CheckpointFile), cp.Path())

	cp.MarkDone("packages")
	cp.MarkDone("packages")
	cp.MarkDone("network")
	require.NoError(t, cp.Save())

	loaded, err := LoadCheckpoint(dir, id, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"packages", "network"}, loaded.Completed)
	assert.True(t, loaded.Done("network"))
	assert.False(t, loaded.Done("join"))
	assert.False(t, loaded.Discarded)

	fresh, err := LoadCheckpoint(dir, id, true)
	require.NoError(t, err)
	assert.Empty(t, fresh.Completed)
}

func TestCheckpoint_FingerprintChange(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	base := testutil.NewConfigBuilder().WithMaster("master-1", "10.0.0.11")

	cp, err := LoadCheckpoint(dir, resolve(t, "master-1", base), false)
	require.NoError(t, err)
	cp.MarkDone("network")
	require.NoError(t, cp.Save())

	moved := testutil.NewConfigBuilder().WithMaster("master-1", "10.0.0.99")
	loaded, err := LoadCheckpoint(dir, resolve(t, "master-1", moved), false)
	require.NoError(t, err)
	assert.True(t, loaded.Discarded)
	assert.Empty(t, loaded.Completed)
}

func TestCheckpoint_Corrupt(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CheckpointFile), []byte("completed: [unterminated"), 0o600))

	_, err := LoadCheckpoint(dir, resolve(t, "master-1", testutil.NewConfigBuilder().WithMaster("master-1", "10.0.0.11")), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--fresh")
}

func TestCheckpoint_MarkDoneClearsPause(t *testing.T) {
	t.Parallel()
	cp := &Checkpoint{}
	cp.Pause("packages", "reboot required")
	require.NotNil(t, cp.Paused)
	cp.MarkDone("packages")
	assert.Nil(t, cp.Paused)

	var none *Checkpoint
	assert.False(t, none.Done("packages"))
}

func TestFingerprint_Stable(t *testing.T) {
	t.Parallel()
	b := testutil.NewConfigBuilder().WithMaster("master-1", "10.0.0.11").WithWorker("worker-1", "10.0.0.21")
	assert.Equal(t, Fingerprint(resolve(t, "worker-1", b)), Fingerprint(resolve(t, "worker-1", b)))
	assert.NotEqual(t, Fingerprint(resolve(t, "master-1", b)), Fingerprint(resolve(t, "worker-1", b)))
}
