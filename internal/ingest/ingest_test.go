package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// fakeExtractor records every transcript it is asked to analyze and returns
// a scripted batch, or a scripted error.
type fakeExtractor struct {
	mu      sync.Mutex
	calls   []string
	batch   []entities.Question
	err     error
	modelID string
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript string) ([]entities.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transcript)
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

func (f *fakeExtractor) UpdateCredentials(creds repositories.Credentials) {}

func (f *fakeExtractor) ModelID() string {
	if f.modelID == "" {
		return "fake-extractor"
	}
	return f.modelID
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExtractor) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

// nopMetrics and nopCosts satisfy the telemetry interfaces without recording
// anything.
type nopMetrics struct{}

func (nopMetrics) Observe(phase, model string, d time.Duration) {}
func (nopMetrics) Averages() map[string]float64                 { return nil }

type nopCosts struct{}

func (nopCosts) TrackAudio(model string, seconds float64)            {}
func (nopCosts) TrackText(model string, inputChars, outputChars int) {}
func (nopCosts) TrackImage(model string)                             {}
func (nopCosts) Stats() repositories.CostStats                       { return repositories.CostStats{} }
func (nopCosts) ResetSession()                                       {}
