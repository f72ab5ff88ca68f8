package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "k3stage", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expected := []string{"run", "prepare", "status", "init", "version", "completion"}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, name := range expected {
		assert.True(t, subcommands[name], "Expected subcommand %s not found", name)
	}
	assert.Len(t, cmd.Commands(), len(expected))
}

func TestRun_Flags(t *testing.T) {
	cmd := Run()

	tests := []struct {
		flag     string
		defValue string
	}{
		{"config", "/etc/k3stage/cluster.conf"},
		{"env-file", "/etc/k3stage/k3stage.env"},
		{"fresh", "false"},
		{"reboot", "false"},
		{"tui", "false"},
		{"hostname", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f, "flag %s missing", tt.flag)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
	assert.Equal(t, "c", cmd.Flags().Lookup("config").Shorthand)
}

func TestRun_RejectsArgs(t *testing.T) {
	root := Root()
	root.SetArgs([]string{"run", "extra"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestPrepare_RequiresNodeName(t *testing.T) {
	root := Root()
	root.SetArgs([]string{"prepare"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestStatus_Flags(t *testing.T) {
	cmd := Status()

	require.NotNil(t, cmd.Flags().Lookup("kubeconfig"))
	require.NotNil(t, cmd.Flags().Lookup("json"))
	assert.Equal(t, "/etc/k3stage/cluster.conf", cmd.Flags().Lookup("config").DefValue)
}

func TestInit_Flags(t *testing.T) {
	cmd := Init()

	assert.Equal(t, "cluster.yaml", cmd.Flags().Lookup("output").DefValue)
	assert.Equal(t, "o", cmd.Flags().Lookup("output").Shorthand)
	assert.Equal(t, "a", cmd.Flags().Lookup("advanced").Shorthand)
	assert.Equal(t, "f", cmd.Flags().Lookup("full").Shorthand)
}
