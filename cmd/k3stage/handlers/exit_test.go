package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning"
)

func TestExitCode(t *testing.T) {
	t.Parallel()
	cmdErr := &shell.CommandError{Command: "k3s-install.sh", ExitCode: 7}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "resume stop", err: provisioning.Resume("network applied", "re-run k3stage run"), want: 0},
		{name: "command failure", err: fmt.Errorf("join stage failed: %w", cmdErr), want: 7},
		{name: "missing config", err: fmt.Errorf("%w: /etc/k3stage/cluster.conf", config.ErrConfigNotFound), want: 1},
		{name: "plain error", err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
