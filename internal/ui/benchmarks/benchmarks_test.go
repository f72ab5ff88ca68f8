package benchmarks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateRemaining_NoHistory(t *testing.T) {
	t.Parallel()
	remaining := EstimateRemaining("join", 20*time.Second, []string{"readiness", "report"}, nil)

	// (120-20) + 60 + 1
	assert.Equal(t, 161*time.Second, remaining)
}

func TestEstimateRemaining_SlowHistory(t *testing.T) {
	t.Parallel()
	history := []StageRecord{
		{Stage: "packages", Duration: 20 * time.Minute},
		{Stage: "network", Duration: time.Minute},
	}

	remaining := EstimateRemaining("join", 0, []string{"readiness"}, history)

	// Scale caps at 3x: 120*3 + 60*3
	assert.Equal(t, 540*time.Second, remaining)
}

func TestEstimateRemaining_Overrun(t *testing.T) {
	t.Parallel()
	remaining := EstimateRemaining("join", 240*time.Second, []string{"readiness"}, nil)

	// 240s against 120s doubles the rest: max(0, 240-240) + 60*2
	assert.Equal(t, 120*time.Second, remaining)
}

func TestEstimateRemaining_UnknownStage(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 60*time.Second, EstimateRemaining("custom", time.Hour, []string{"readiness"}, nil))
}

func TestPerformanceScale(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		history []StageRecord
		want    float64
	}{
		{"empty", nil, 1.0},
		{"on time", []StageRecord{{Stage: "join", Duration: 120 * time.Second}}, 1.0},
		{"slow", []StageRecord{{Stage: "join", Duration: 180 * time.Second}}, 1.5},
		{"fast clamps", []StageRecord{{Stage: "join", Duration: time.Second}}, 0.6},
		{"unknown ignored", []StageRecord{{Stage: "custom", Duration: time.Hour}}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, PerformanceScale("", 0, tt.history), 0.001)
		})
	}
}

func TestReleaseExpectedDuration(t *testing.T) {
	t.Parallel()
	d, ok := ReleaseExpectedDuration("rancher")
	assert.True(t, ok)
	assert.Equal(t, 5*time.Minute, d)

	_, ok = ReleaseExpectedDuration("traefik")
	assert.False(t, ok)
}

func TestTotalEstimate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 181*time.Second, TotalEstimate([]string{"join", "readiness", "report"}))
}
