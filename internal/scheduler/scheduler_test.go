package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchedule_CPUTiers(t *testing.T) {
	cases := []struct {
		name        string
		cpu         float64
		wantWorkers int
		wantBackoff bool
	}{
		{"idle", 10, 8, false},
		{"at lower threshold", 65, 8, false},
		{"busy", 70, 4, false},
		{"at upper threshold", 85, 4, false},
		{"saturated", 90, 2, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Schedule(Snapshot{CPUPercent: tc.cpu})
			assert.Equal(t, tc.wantWorkers, d.WorkerCount)
			assert.Equal(t, tc.wantBackoff, d.QueueBackpressure)
		})
	}
}

func TestSchedule_WorkerCountNonIncreasingInCPU(t *testing.T) {
	prev := Schedule(Snapshot{CPUPercent: 0}).WorkerCount
	for cpu := 1.0; cpu <= 100; cpu++ {
		cur := Schedule(Snapshot{CPUPercent: cpu}).WorkerCount
		assert.LessOrEqual(t, cur, prev, "cpu=%v", cpu)
		prev = cur
	}
}

func TestSchedule_GPUPreferenceIndependentOfCPU(t *testing.T) {
	d := Schedule(Snapshot{CPUPercent: 90, GPUAvailable: true, ModelServiceLoad: 0.5})
	assert.Equal(t, Decision{WorkerCount: 2, PreferGPU: true, QueueBackpressure: true}, d)

	d = Schedule(Snapshot{CPUPercent: 10, GPUAvailable: true, ModelServiceLoad: 0.85})
	assert.False(t, d.PreferGPU, "loaded model service should mask the GPU")

	d = Schedule(Snapshot{CPUPercent: 10, GPUAvailable: false, ModelServiceLoad: 0.1})
	assert.False(t, d.PreferGPU)
}

func TestCapture_EnvOverrides(t *testing.T) {
	t.Setenv(envCPUPercent, "91.5")
	t.Setenv(envGPUAvailable, "yes")
	t.Setenv(envModelServiceLoad, "0.42")

	snap := Capture(context.Background())
	assert.Equal(t, 91.5, snap.CPUPercent)
	assert.True(t, snap.GPUAvailable)
	assert.Equal(t, 0.42, snap.ModelServiceLoad)
}

func TestCapture_BadEnvFallsBack(t *testing.T) {
	t.Setenv(envCPUPercent, "not-a-number")
	t.Setenv(envGPUAvailable, "maybe")
	t.Setenv(envModelServiceLoad, "")

	snap := Capture(context.Background())
	assert.False(t, snap.GPUAvailable)
	assert.Equal(t, defaultModelServiceLoad, snap.ModelServiceLoad)
	assert.GreaterOrEqual(t, snap.CPUPercent, 0.0)
}
