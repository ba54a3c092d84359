package telemetry

import (
	"math"
	"testing"
)

func TestTrackAudioByTime(t *testing.T) {
	tr := NewPriceTracker()
	tr.TrackAudio("openai_realtime_4o", 60)

	stats := tr.Stats()
	if math.Abs(stats.Total-0.24) > 1e-9 {
		t.Errorf("Total = %v, want 0.24", stats.Total)
	}
	if math.Abs(stats.Breakdown["audio"]-0.24) > 1e-9 {
		t.Errorf("Breakdown[audio] = %v", stats.Breakdown["audio"])
	}
}

func TestTrackAudioNormalizesRealtimeIDs(t *testing.T) {
	tests := []struct {
		model string
		want  float64 // USD for one minute
	}{
		{"gpt-4o-realtime-preview-2024-10-01", 0.24},
		{"gpt-4o-mini-realtime-preview-2024-12-17", 0.06},
		{"google_stream", 0.006},
	}
	for _, tt := range tests {
		tr := NewPriceTracker()
		tr.TrackAudio(tt.model, 60)
		if got := tr.Stats().Total; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TrackAudio(%q, 60s) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestTrackUnknownModelIsFree(t *testing.T) {
	tr := NewPriceTracker()
	tr.TrackAudio("mystery-model", 600)
	tr.TrackText("mystery-model", 4000, 4000)
	tr.TrackImage("mystery-model")

	if got := tr.Stats().Total; got != 0 {
		t.Errorf("Unknown models must cost nothing, got %v", got)
	}
}

func TestTrackText(t *testing.T) {
	tr := NewPriceTracker()
	// 4M input chars = 1M tokens at $0.075, 4M output chars = 1M at $0.30.
	tr.TrackText("gemini-2.5-flash", 4_000_000, 4_000_000)

	if got := tr.Stats().Total; math.Abs(got-0.375) > 1e-9 {
		t.Errorf("Total = %v, want 0.375", got)
	}
}

func TestTrackImage(t *testing.T) {
	tr := NewPriceTracker()
	tr.TrackImage("google/gemini-2.5-flash-image")
	tr.TrackImage("google/gemini-2.5-flash-image")

	stats := tr.Stats()
	if math.Abs(stats.Total-0.07) > 1e-9 {
		t.Errorf("Total = %v, want 0.07", stats.Total)
	}
	if math.Abs(stats.Breakdown["image"]-0.07) > 1e-9 {
		t.Errorf("Breakdown[image] = %v", stats.Breakdown["image"])
	}
}

func TestResetSessionKeepsTotal(t *testing.T) {
	tr := NewPriceTracker()
	tr.TrackImage("google/gemini-2.5-flash-image")

	tr.ResetSession()
	stats := tr.Stats()
	if stats.Session != 0 {
		t.Errorf("Session = %v, want 0", stats.Session)
	}
	if math.Abs(stats.Total-0.035) > 1e-9 {
		t.Errorf("Total = %v, want 0.035", stats.Total)
	}

	tr.TrackImage("google/gemini-2.5-flash-image")
	stats = tr.Stats()
	if math.Abs(stats.Session-0.035) > 1e-9 {
		t.Errorf("Session after new spend = %v", stats.Session)
	}
	if math.Abs(stats.Total-0.07) > 1e-9 {
		t.Errorf("Total after new spend = %v", stats.Total)
	}
}
