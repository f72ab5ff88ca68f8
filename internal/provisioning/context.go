package provisioning

import (
	"context"
	"time"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/metrics"
	"github.com/imamik/k3stage/internal/node"
	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/util/retry"
)

// ReleaseResult is the outcome of one platform chart.
type ReleaseResult struct {
	Name      string
	Namespace string
	Outcome   string
}

// State holds the shared results of stages. It is progressively populated
// and read by later stages.
type State struct {
	StartedAt time.Time

	// Join results
	Token          string
	KubeconfigPath string

	// Platform results
	Releases []ReleaseResult
}

// Options are the operator's run switches.
type Options struct {
	// Fresh ignores any persisted checkpoint.
	Fresh bool
	// Reboot schedules a reboot when a stage needs one.
	Reboot bool
}

// Context wraps all dependencies and state needed for a stage. It replaces
// any process-global environment handoff between stages.
type Context struct {
	context.Context
	Config     *config.Config
	Identity   node.Identity
	Options    Options
	State      *State
	Runner     shell.Runner
	Observer   Observer
	Timeouts   *config.Timeouts
	Checkpoint *Checkpoint
	Metrics    MetricsRecorder
	LogFile    string

	// StageIndex is 1-based and set by RunStages.
	StageIndex int
	StageCount int
}

// NewContext creates a context with default collaborators. Callers replace
// fields as needed before running stages.
func NewContext(ctx context.Context, cfg *config.Config, id node.Identity, runner shell.Runner, observer Observer) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		Identity: id,
		State:    &State{},
		Runner:   runner,
		Observer: observer,
		Timeouts: config.LoadTimeouts(),
		Metrics:  metrics.NewRecorder(id.Name()),
		LogFile:  cfg.Paths.LogFile,
	}
}

// PollPolicy builds the polling policy for a wait bounded by timeout.
func (c *Context) PollPolicy(timeout time.Duration) retry.PollPolicy {
	p := retry.DefaultPollPolicy(timeout)
	if c.Timeouts != nil && c.Timeouts.PollInterval > 0 {
		p.Interval = c.Timeouts.PollInterval
		if p.MaxInterval < p.Interval {
			p.MaxInterval = p.Interval
		}
	}
	return p
}
