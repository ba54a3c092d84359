// Package telemetry provides the injected latency and cost collectors.
// They are owned by the server and passed to the components that need them;
// there is no process-wide singleton, so tests can assert on a fresh
// instance per session.
package telemetry

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxSamples bounds the rolling window kept per phase/model pair.
const maxSamples = 100

// Recorder implements repositories.MetricsRecorder with an optional
// file-backed history that survives restarts.
type Recorder struct {
	mu      sync.Mutex
	samples map[string][]float64
	file    string
	logger  *zap.Logger
}

// NewRecorder creates a Recorder. When file is non-empty, previously saved
// samples are loaded from it and every update is written back.
func NewRecorder(file string, logger *zap.Logger) *Recorder {
	r := &Recorder{
		samples: make(map[string][]float64),
		file:    file,
		logger:  logger,
	}
	r.load()
	return r
}

// Observe records one latency sample under "phase:model".
func (r *Recorder) Observe(phase string, model string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := phase + ":" + model
	s := append(r.samples[key], d.Seconds())
	if len(s) > maxSamples {
		s = s[len(s)-maxSamples:]
	}
	r.samples[key] = s
	r.save()
}

// Averages returns the mean of each rolling window in seconds.
func (r *Recorder) Averages() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]float64, len(r.samples))
	for key, values := range r.samples {
		if len(values) == 0 {
			continue
		}
		var sum float64
		for _, v := range values {
			sum += v
		}
		out[key] = sum / float64(len(values))
	}
	return out
}

func (r *Recorder) load() {
	if r.file == "" {
		return
	}
	data, err := os.ReadFile(r.file)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &r.samples); err != nil {
		r.logger.Warn("Failed to load metrics history", zap.Error(err))
		r.samples = make(map[string][]float64)
	}
}

// save is called with the mutex held. Volume is low enough that writing on
// every sample is fine.
func (r *Recorder) save() {
	if r.file == "" {
		return
	}
	data, err := json.Marshal(r.samples)
	if err != nil {
		return
	}
	if err := os.WriteFile(r.file, data, 0o644); err != nil {
		r.logger.Warn("Failed to save metrics history", zap.Error(err))
	}
}
