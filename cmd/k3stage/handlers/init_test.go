package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/config/wizard"
)

func wizardResult() *wizard.WizardResult {
	return &wizard.WizardResult{
		Nodes: []config.Node{
			{Name: "master-1", Address: "10.0.0.11", Role: config.RoleMaster},
			{Name: "worker-1", Address: "10.0.0.21", Role: config.RoleWorker},
		},
		InitNode:        "master-1",
		RancherHostname: "rancher.example.test",
		RancherReplicas: 1,
		SSHUser:         "root",
		SSHKeyPath:      "/root/.ssh/id_rsa",
		Connection:      "eth0",
		Prefix:          24,
		Gateway:         "10.0.0.1",
		DNS:             []string{"1.1.1.1"},
	}
}

func TestInit_WritesConfig(t *testing.T) {
	out := saveAndRestoreFactories(t)

	fileExists = func(string) bool { return false }
	var advancedSeen bool
	runWizard = func(_ context.Context, advanced bool) (*wizard.WizardResult, error) {
		advancedSeen = advanced
		return wizardResult(), nil
	}
	var written *config.Config
	var writtenPath string
	var full bool
	writeConfig = func(cfg *config.Config, path string, fullOutput bool) error {
		written, writtenPath, full = cfg, path, fullOutput
		return nil
	}

	err := Init(context.Background(), "cluster.yaml", true, true)

	require.NoError(t, err)
	assert.True(t, advancedSeen)
	assert.True(t, full)
	assert.Equal(t, "cluster.yaml", writtenPath)
	require.NotNil(t, written)
	assert.Equal(t, "master-1", written.Cluster.InitNode)
	assert.Len(t, written.Nodes, 2)
	assert.Contains(t, out.String(), "Configuration saved!")
	assert.Contains(t, out.String(), "Masters:   1")
	assert.Contains(t, out.String(), "k3stage prepare <node-name>")
}

func TestInit_OverwriteDeclined(t *testing.T) {
	out := saveAndRestoreFactories(t)

	fileExists = func(string) bool { return true }
	confirmOverwrite = func(string) (bool, error) { return false, nil }
	runWizard = func(context.Context, bool) (*wizard.WizardResult, error) {
		t.Fatal("wizard must not run")
		return nil, nil
	}

	err := Init(context.Background(), "cluster.yaml", false, false)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Aborted.")
}

func TestInit_WizardCanceled(t *testing.T) {
	saveAndRestoreFactories(t)

	fileExists = func(string) bool { return false }
	runWizard = func(context.Context, bool) (*wizard.WizardResult, error) {
		return nil, errors.New("user aborted")
	}

	err := Init(context.Background(), "cluster.yaml", false, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "wizard canceled")
}

func TestInit_WriteError(t *testing.T) {
	saveAndRestoreFactories(t)

	fileExists = func(string) bool { return false }
	runWizard = func(context.Context, bool) (*wizard.WizardResult, error) { return wizardResult(), nil }
	writeConfig = func(*config.Config, string, bool) error { return errors.New("permission denied") }

	err := Init(context.Background(), "/etc/k3stage/cluster.yaml", false, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write config")
}
