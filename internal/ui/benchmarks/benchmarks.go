// Package benchmarks provides timing estimates for bootstrap stages.
package benchmarks

import "time"

// DefaultTimings are typical stage durations on a small VM (seconds).
var DefaultTimings = map[string]int{
	"packages":  240,
	"network":   10,
	"join":      120,
	"readiness": 60,
	"platform":  600,
	"report":    1,
	// Individual releases
	"release:flannel":      30,
	"release:longhorn":     180,
	"release:cert-manager": 60,
	"release:rancher":      300,
}

// StageRecord is a finished stage and how long it took.
type StageRecord struct {
	Stage    string
	Duration time.Duration
}

// EstimateRemaining calculates the estimated time remaining from the current
// stage, its elapsed time, the stages still ahead and the finished ones.
func EstimateRemaining(current string, elapsed time.Duration, ahead []string, history []StageRecord) time.Duration {
	return EstimateRemainingWithScale(current, elapsed, ahead, PerformanceScale(current, elapsed, history))
}

// EstimateRemainingWithScale calculates ETA while applying a performance scale factor.
func EstimateRemainingWithScale(current string, elapsed time.Duration, ahead []string, scale float64) time.Duration {
	var remaining time.Duration

	if expected, ok := StageExpectedDuration(current); ok {
		expected = time.Duration(float64(expected) * scale)
		if expected > elapsed {
			remaining += expected - elapsed
		}
	}
	for _, stage := range ahead {
		if expected, ok := StageExpectedDuration(stage); ok {
			remaining += time.Duration(float64(expected) * scale)
		}
	}
	return remaining
}

// PerformanceScale derives a speed multiplier from observed-vs-expected durations.
// Example: expected 2m, observed 3m => scale=1.5 (future ETAs are stretched by 50%).
func PerformanceScale(current string, elapsed time.Duration, history []StageRecord) float64 {
	var expectedTotal, actualTotal time.Duration

	for _, rec := range history {
		expected, ok := StageExpectedDuration(rec.Stage)
		if !ok || rec.Duration <= 0 {
			continue
		}
		expectedTotal += expected
		actualTotal += rec.Duration
	}

	// An overrunning stage counts immediately so the ETA adapts quickly.
	if expected, ok := StageExpectedDuration(current); ok && elapsed > expected {
		expectedTotal += expected
		actualTotal += elapsed
	}

	if expectedTotal == 0 || actualTotal == 0 {
		return 1.0
	}

	scale := float64(actualTotal) / float64(expectedTotal)
	return min(max(scale, 0.6), 3.0)
}

// StageExpectedDuration returns the benchmark duration for a stage.
func StageExpectedDuration(stage string) (time.Duration, bool) {
	secs, ok := DefaultTimings[stage]
	if !ok {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// ReleaseExpectedDuration returns the benchmark duration for a platform release.
func ReleaseExpectedDuration(release string) (time.Duration, bool) {
	return StageExpectedDuration("release:" + release)
}

// TotalEstimate returns the estimated duration of stages.
func TotalEstimate(stages []string) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		if d, ok := StageExpectedDuration(stage); ok {
			total += d
		}
	}
	return total
}
