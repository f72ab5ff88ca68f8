package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/logging"
	"github.com/imamik/k3stage/internal/node"
	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning"
	testutil "github.com/imamik/k3stage/internal/testing"
	"github.com/imamik/k3stage/internal/ui/tui"
)

type fakeStage struct {
	name string
	err  error
	seen *[]string
	ctx  *provisioning.Context
}

func (s *fakeStage) Name() string { return s.name }

func (s *fakeStage) Run(ctx *provisioning.Context) error {
	*s.seen = append(*s.seen, s.name)
	s.ctx = ctx
	return s.err
}

// setupRun wires every run dependency to in-memory fakes and returns the
// stage call log and the durable log buffer.
func setupRun(t *testing.T, cfg *config.Config, stages ...*fakeStage) (*[]string, *bytes.Buffer) {
	t.Helper()
	saveAndRestoreFactories(t)

	seen := &[]string{}
	logBuf := &bytes.Buffer{}

	loadEnvFile = func(string) error { return nil }
	loadConfig = func(string) (*config.Config, error) { return cfg, nil }
	localHostname = func(*config.Config) (string, error) { return "master-1", nil }
	checkNode = func() error { return nil }
	openLog = func(string) (*logging.Logger, error) { return logging.New(logBuf), nil }
	newRunner = func(io.Writer) shell.Runner { return testutil.NewFakeRunner() }
	newStages = func() []provisioning.Stage {
		out := make([]provisioning.Stage, 0, len(stages))
		for _, s := range stages {
			s.seen = seen
			out = append(out, s)
		}
		return out
	}
	return seen, logBuf
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testutil.NewConfigBuilder().
		WithMaster("master-1", "10.0.0.11").
		WithWorker("worker-1", "10.0.0.21").
		WithStateDir(t.TempDir()).
		Build()
}

func TestRun_AllStages(t *testing.T) {
	cfg := testConfig(t)
	seen, _ := setupRun(t, cfg, &fakeStage{name: "packages"}, &fakeStage{name: "join"})

	err := Run(context.Background(), RunOptions{ConfigPath: "cluster.conf", Reboot: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"packages", "join"}, *seen)
	assert.Contains(t, stdout.(*bytes.Buffer).String(), "packages")
}

func TestRun_PassesOptionsAndCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	stage := &fakeStage{name: "packages"}
	setupRun(t, cfg, stage)

	var fresh bool
	loadCheckpoint = func(dir string, id node.Identity, f bool) (*provisioning.Checkpoint, error) {
		fresh = f
		assert.Equal(t, cfg.Paths.StateDir, dir)
		assert.Equal(t, "master-1", id.Name())
		return provisioning.LoadCheckpoint(dir, id, f)
	}

	err := Run(context.Background(), RunOptions{Fresh: true, Reboot: true})

	require.NoError(t, err)
	assert.True(t, fresh)
	require.NotNil(t, stage.ctx)
	assert.True(t, stage.ctx.Options.Fresh)
	assert.True(t, stage.ctx.Options.Reboot)
	assert.NotNil(t, stage.ctx.Checkpoint)
	assert.True(t, stage.ctx.Identity.IsInitializer())
}

func TestRun_HostnameOverride(t *testing.T) {
	cfg := testConfig(t)
	stage := &fakeStage{name: "packages"}
	setupRun(t, cfg, stage)

	err := Run(context.Background(), RunOptions{Hostname: "worker-1"})

	require.NoError(t, err)
	assert.Equal(t, "worker-1", stage.ctx.Identity.Name())
	assert.Equal(t, config.RoleWorker, stage.ctx.Identity.Role())
}

func TestRun_UnknownNode(t *testing.T) {
	cfg := testConfig(t)
	seen, _ := setupRun(t, cfg, &fakeStage{name: "packages"})

	built := false
	newStages = func() []provisioning.Stage {
		built = true
		return nil
	}
	localHostname = func(*config.Config) (string, error) { return "node-9", nil }

	err := Run(context.Background(), RunOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, node.ErrNodeNotRegistered)
	assert.Contains(t, err.Error(), "node-9")
	assert.Equal(t, 1, ExitCode(err))
	assert.False(t, built)
	assert.Empty(t, *seen)
}

func TestRun_ConfigError(t *testing.T) {
	cfg := testConfig(t)
	setupRun(t, cfg)
	loadConfig = func(path string) (*config.Config, error) {
		return nil, errors.Join(config.ErrConfigNotFound, errors.New(path))
	}

	err := Run(context.Background(), RunOptions{ConfigPath: "/missing"})

	require.ErrorIs(t, err, config.ErrConfigNotFound)
	assert.Equal(t, 1, ExitCode(err))
}

func TestRun_PrerequisitesFailure(t *testing.T) {
	cfg := testConfig(t)
	seen, _ := setupRun(t, cfg, &fakeStage{name: "packages"})
	checkNode = func() error { return errors.New("missing required tools: nmcli (package NetworkManager)") }

	err := Run(context.Background(), RunOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmcli")
	assert.Empty(t, *seen)
}

func TestRun_StageFailureExitCode(t *testing.T) {
	cfg := testConfig(t)
	cmdErr := &shell.CommandError{Command: "sh k3s-install.sh", ExitCode: 4}
	seen, _ := setupRun(t, cfg,
		&fakeStage{name: "packages"},
		&fakeStage{name: "join", err: cmdErr},
		&fakeStage{name: "report"},
	)

	err := Run(context.Background(), RunOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "join stage failed")
	assert.Equal(t, 4, ExitCode(err))
	assert.Equal(t, []string{"packages", "join"}, *seen)
}

func TestRun_ResumeStop(t *testing.T) {
	cfg := testConfig(t)
	seen, _ := setupRun(t, cfg,
		&fakeStage{name: "network", err: provisioning.Resume("static address scheduled", "run k3stage run again")},
		&fakeStage{name: "join"},
	)

	err := Run(context.Background(), RunOptions{})

	require.ErrorIs(t, err, provisioning.ErrResume)
	assert.Equal(t, 0, ExitCode(err))
	assert.Equal(t, []string{"network"}, *seen)
}

func TestRun_TUI(t *testing.T) {
	cfg := testConfig(t)
	seen, _ := setupRun(t, cfg, &fakeStage{name: "packages"}, &fakeStage{name: "report"})

	var model tui.Model
	runTUI = func(ctx context.Context, m tui.Model, next provisioning.Observer, run tui.RunFunc, _ ...tea.ProgramOption) error {
		model = m
		return run(ctx, next)
	}

	err := Run(context.Background(), RunOptions{TUI: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"packages", "report"}, *seen)
	assert.Equal(t, "master-1", model.NodeName)
	require.Len(t, model.Stages, 2)
	assert.Equal(t, "report", model.Stages[1].Name)
	assert.Empty(t, stdout.(*bytes.Buffer).String(), "console output is replaced by the view")
}

func TestDefaultStages_Order(t *testing.T) {
	assert.Equal(t,
		[]string{"packages", "network", "join", "readiness", "platform", "report"},
		stageNames(defaultStages()))
}
