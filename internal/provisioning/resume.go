package provisioning

import (
	"errors"
	"fmt"
)

// ErrResume matches every ResumeError.
var ErrResume = errors.New("run paused")

// ResumeError stops a run without failing it. The operator performs Action
// (reboot, reconnect) and runs the command again.
type ResumeError struct {
	Stage  string
	Reason string
	Action string
}

// Resume creates a ResumeError.
func Resume(reason, action string) *ResumeError {
	return &ResumeError{Reason: reason, Action: action}
}

func (e *ResumeError) Error() string {
	return fmt.Sprintf("%s stage paused: %s", e.Stage, e.Reason)
}

// Is matches ErrResume.
func (e *ResumeError) Is(target error) bool {
	return target == ErrResume
}
