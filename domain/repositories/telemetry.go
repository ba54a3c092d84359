package repositories

import "time"

// MetricsRecorder collects per-phase latency samples. Recording is
// fire-and-forget: implementations must never block the pipeline and never
// fail visibly.
type MetricsRecorder interface {
	Observe(phase string, model string, d time.Duration)
	// Averages returns the mean latency in seconds keyed by "phase:model".
	Averages() map[string]float64
}

// CostStats is a snapshot of accumulated spend in USD.
type CostStats struct {
	Total     float64            `json:"total"`
	Session   float64            `json:"session"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// CostTracker estimates provider spend. Like MetricsRecorder it is
// fire-and-forget.
type CostTracker interface {
	TrackAudio(model string, seconds float64)
	TrackText(model string, inputChars, outputChars int)
	TrackImage(model string)
	Stats() CostStats
	// ResetSession zeroes the per-session counter; the running total persists.
	ResetSession()
}
