package handlers

import (
	"errors"

	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning"
)

// ExitCode maps a command error to the process exit status. A clean resume
// stop counts as success; a failed external command passes its own status
// through.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, provisioning.ErrResume) {
		return 0
	}
	if code, ok := shell.ExitCode(err); ok && code > 0 {
		return code
	}
	return 1
}
