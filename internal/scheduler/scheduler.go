package scheduler

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// Snapshot is a point-in-time view of the resources a generation cycle competes for.
type Snapshot struct {
	CPUPercent       float64
	GPUAvailable     bool
	ModelServiceLoad float64
}

// Decision tells the caller how much work to admit for one cycle.
// QueueBackpressure is advisory only; the scheduler does not enforce admission.
type Decision struct {
	WorkerCount       int
	PreferGPU         bool
	QueueBackpressure bool
}

// Schedule maps a snapshot to a concurrency decision. Pure and total.
// CPU pressure is the primary throttle; GPU preference is an orthogonal hint.
func Schedule(snap Snapshot) Decision {
	preferGPU := snap.GPUAvailable && snap.ModelServiceLoad < 0.85
	if snap.CPUPercent > 85 {
		return Decision{WorkerCount: 2, PreferGPU: preferGPU, QueueBackpressure: true}
	}
	if snap.CPUPercent > 65 {
		return Decision{WorkerCount: 4, PreferGPU: preferGPU, QueueBackpressure: false}
	}
	return Decision{WorkerCount: 8, PreferGPU: preferGPU, QueueBackpressure: false}
}

const (
	envCPUPercent       = "DRAFTER_CPU_PERCENT"
	envGPUAvailable     = "DRAFTER_GPU_AVAILABLE"
	envModelServiceLoad = "DRAFTER_MODEL_SERVICE_LOAD"

	defaultCPUPercent       = 35.0
	defaultModelServiceLoad = 0.3
)

// Capture samples the host for a snapshot. Environment overrides win over
// live sampling so deployments without host access stay deterministic.
// Capture never fails; unreadable inputs degrade to defaults.
func Capture(ctx context.Context) Snapshot {
	snap := Snapshot{
		CPUPercent:       defaultCPUPercent,
		GPUAvailable:     envBool(os.Getenv(envGPUAvailable)),
		ModelServiceLoad: defaultModelServiceLoad,
	}

	if raw := os.Getenv(envCPUPercent); raw != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			snap.CPUPercent = v
		}
	} else if pct, err := cpu.PercentWithContext(ctx, 150*time.Millisecond, false); err == nil && len(pct) > 0 {
		snap.CPUPercent = pct[0]
	}

	if raw := os.Getenv(envModelServiceLoad); raw != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			snap.ModelServiceLoad = v
		}
	}

	return snap
}

func envBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
