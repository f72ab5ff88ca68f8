package provisioning

import (
	"errors"
	"fmt"
	"time"

	"github.com/imamik/k3stage/internal/metrics"
)

// RunStages executes stages sequentially and stops at the first failure.
// A stage returning a ResumeError ends the run early; the error is returned
// unwrapped so callers can match ErrResume.
func RunStages(ctx *Context, stages []Stage) error {
	if ctx.State == nil {
		ctx.State = &State{}
	}
	if ctx.Metrics == nil {
		var none *metrics.Recorder
		ctx.Metrics = none
	}
	if ctx.State.StartedAt.IsZero() {
		ctx.State.StartedAt = time.Now()
	}
	ctx.StageCount = len(stages)
	ctx.Observer.Printf("starting run on %s (%s, %s) with %d stages",
		ctx.Identity.Name(), ctx.Identity.Role(), ctx.Identity.Address(), len(stages))
	if ctx.Checkpoint != nil && ctx.Checkpoint.Discarded {
		ctx.Observer.Printf("discarded checkpoint recorded for a different node identity")
	}

	for i, stage := range stages {
		name := stage.Name()
		ctx.StageIndex = i + 1

		if c, ok := stage.(Conditional); ok && !c.Applies(ctx) {
			LogStageSkipped(ctx.Observer, name, "not applicable to this node")
			ctx.Metrics.RecordStage(name, metrics.ResultSkipped, 0)
			continue
		}
		checkpointed := isCheckpointed(stage)
		if checkpointed && ctx.Checkpoint.Done(name) {
			LogStageSkipped(ctx.Observer, name, "completed in a previous run")
			ctx.Metrics.RecordStage(name, metrics.ResultSkipped, 0)
			continue
		}

		ctx.Observer.Banner(name, i+1, len(stages))
		stageStart := time.Now()
		err := stage.Run(ctx)
		elapsed := time.Since(stageStart)

		var resume *ResumeError
		switch {
		case errors.As(err, &resume):
			if resume.Stage == "" {
				resume.Stage = name
			}
			LogStagePaused(ctx.Observer, name, resume)
			ctx.Metrics.RecordStage(name, metrics.ResultResume, elapsed)
			if ctx.Checkpoint != nil {
				ctx.Checkpoint.Pause(name, resume.Reason)
				if saveErr := ctx.Checkpoint.Save(); saveErr != nil {
					return fmt.Errorf("%s stage paused but checkpoint was not saved: %w", name, saveErr)
				}
			}
			return resume

		case err != nil:
			LogStageFailed(ctx.Observer, name, err)
			ctx.Metrics.RecordStage(name, metrics.ResultFailed, elapsed)
			ctx.Metrics.RecordRun(metrics.ResultFailed, time.Now())
			if werr := ctx.Metrics.WriteTextfile(ctx.Config.Paths.MetricsTextfileDir); werr != nil {
				ctx.Observer.Printf("metrics: %v", werr)
			}
			return fmt.Errorf("%s stage failed: %w", name, err)
		}

		LogStageComplete(ctx.Observer, name, elapsed)
		ctx.Metrics.RecordStage(name, metrics.ResultSucceeded, elapsed)
		if checkpointed && ctx.Checkpoint != nil {
			ctx.Checkpoint.MarkDone(name)
			if err := ctx.Checkpoint.Save(); err != nil {
				return fmt.Errorf("failed to save checkpoint after %s: %w", name, err)
			}
		}
	}

	ctx.Observer.Printf("run completed in %v", time.Since(ctx.State.StartedAt).Round(time.Millisecond))
	return nil
}

func isCheckpointed(stage Stage) bool {
	c, ok := stage.(Checkpointed)
	return ok && c.Checkpointed()
}
