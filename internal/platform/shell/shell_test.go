package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{name: "plain", cmd: Cmd("systemctl", "enable", "--now", "k3s"), want: "systemctl enable --now k3s"},
		{name: "quoted script", cmd: Script("curl -sfL https://get.k3s.io | sh -"), want: `sh -c "curl -sfL https://get.k3s.io | sh -"`},
		{
			name: "token masked",
			cmd:  Cmd("sh").WithEnv("K3S_URL", "https://10.0.0.1:6443").WithEnv("K3S_TOKEN", "abc123"),
			want: "K3S_TOKEN=*** K3S_URL=https://10.0.0.1:6443 sh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestCommand_WithEnvCopies(t *testing.T) {
	t.Parallel()
	base := Cmd("true").WithEnv("A", "1")
	derived := base.WithEnv("B", "2")

	assert.Len(t, base.Env, 1)
	assert.Len(t, derived.Env, 2)
}

func TestLocalRunner_Run(t *testing.T) {
	t.Parallel()
	var log bytes.Buffer
	r := NewLocalRunner(&log)

	out, err := r.Run(context.Background(), Cmd("sh", "-c", "echo $GREETING").WithEnv("GREETING", "hello"))

	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
	assert.Contains(t, log.String(), "$ GREETING=hello sh -c")
	assert.Contains(t, log.String(), "hello\n")
}

func TestLocalRunner_ExitCode(t *testing.T) {
	t.Parallel()
	r := NewLocalRunner(nil)

	out, err := r.Run(context.Background(), Script("echo boom; exit 3"))

	require.Error(t, err)
	assert.Equal(t, "boom\n", out)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)

	code, ok := ExitCode(fmt.Errorf("join stage failed: %w", err))
	assert.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestLocalRunner_MissingBinary(t *testing.T) {
	t.Parallel()
	r := NewLocalRunner(nil)

	_, err := r.Run(context.Background(), Cmd("k3stage-definitely-missing-binary"))

	require.Error(t, err)
	_, ok := ExitCode(err)
	assert.False(t, ok)
}
