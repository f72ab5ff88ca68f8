package provisioning

import "time"

// Stage defines the interface for a bootstrap stage.
type Stage interface {
	// Name returns the short name of this stage.
	Name() string

	// Run executes the stage.
	Run(ctx *Context) error
}

// Conditional is implemented by stages that only apply to some nodes.
type Conditional interface {
	Applies(ctx *Context) bool
}

// Checkpointed is implemented by stages whose completion is persisted so a
// later run skips them.
type Checkpointed interface {
	Checkpointed() bool
}

// Logger writes detail to the durable log only.
type Logger interface {
	Printf(format string, v ...any)
}

// MetricsRecorder receives run metrics. Implemented by metrics.Recorder.
type MetricsRecorder interface {
	RecordStage(stage, result string, duration time.Duration)
	RecordRelease(release, outcome string)
	RecordRun(outcome string, at time.Time)
	WriteTextfile(dir string) error
}
