package telemetry

import (
	"strings"
	"sync"

	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

type rateMode int

const (
	rateByTime rateMode = iota
	rateByToken
	rateByItem
)

type rate struct {
	mode   rateMode
	perMin float64 // rateByTime: USD per minute of audio
	input  float64 // rateByToken: USD per 1M input tokens
	output float64 // rateByToken: USD per 1M output tokens
	item   float64 // rateByItem: USD per image
}

// rates holds estimated USD rates per model. Unknown models cost zero.
var rates = map[string]rate{
	// Audio ingest
	"google_stream":        {mode: rateByTime, perMin: 0.006},
	"gemini_flash_audio":   {mode: rateByTime, perMin: 0.004},
	"openai_realtime_4o":   {mode: rateByTime, perMin: 0.24},
	"openai_realtime_mini": {mode: rateByTime, perMin: 0.06},
	"openai_rest_whisper":  {mode: rateByTime, perMin: 0.006},

	// Question extraction, per 1M tokens
	"gemini-2.5-flash":                 {mode: rateByToken, input: 0.075, output: 0.30},
	"google/gemini-2.5-flash-lite":     {mode: rateByToken, input: 0.075, output: 0.30},
	"openai/gpt-4o-mini":               {mode: rateByToken, input: 0.15, output: 0.60},
	"meta-llama/llama-3.2-3b-instruct": {mode: rateByToken, input: 0.05, output: 0.10},

	// Images, per item
	"google/gemini-2.5-flash-image":         {mode: rateByItem, item: 0.035},
	"google/gemini-2.5-flash-image-preview": {mode: rateByItem, item: 0.035},
	"google/gemini-3-pro-image-preview":     {mode: rateByItem, item: 0.050},
	"openai/gpt-5-image-mini":               {mode: rateByItem, item: 0.040},
	"stabilityai/stable-diffusion-3-medium": {mode: rateByItem, item: 0.035},
}

// PriceTracker implements repositories.CostTracker.
type PriceTracker struct {
	mu        sync.Mutex
	total     float64
	session   float64
	breakdown map[string]float64
}

// NewPriceTracker creates an empty tracker.
func NewPriceTracker() *PriceTracker {
	return &PriceTracker{breakdown: make(map[string]float64)}
}

// TrackAudio records spend for a clip of audio sent to an ingest model.
func (t *PriceTracker) TrackAudio(model string, seconds float64) {
	r, ok := rates[normalizeAudioModel(model)]
	if !ok || r.mode != rateByTime {
		return
	}
	t.add((seconds/60.0)*r.perMin, "audio")
}

// TrackText records spend for one extraction call, estimating tokens from
// character counts (roughly 4 chars per token).
func (t *PriceTracker) TrackText(model string, inputChars, outputChars int) {
	r, ok := rates[model]
	if !ok || r.mode != rateByToken {
		return
	}
	inTokens := float64(inputChars) / 4
	outTokens := float64(outputChars) / 4
	t.add(inTokens/1_000_000*r.input+outTokens/1_000_000*r.output, "text")
}

// TrackImage records spend for one generated image.
func (t *PriceTracker) TrackImage(model string) {
	r, ok := rates[model]
	if !ok || r.mode != rateByItem {
		return
	}
	t.add(r.item, "image")
}

// Stats returns a snapshot of accumulated spend.
func (t *PriceTracker) Stats() repositories.CostStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	breakdown := make(map[string]float64, len(t.breakdown))
	for k, v := range t.breakdown {
		breakdown[k] = v
	}
	return repositories.CostStats{
		Total:     t.total,
		Session:   t.session,
		Breakdown: breakdown,
	}
}

// ResetSession zeroes the per-session counter. The running total persists.
func (t *PriceTracker) ResetSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = 0
}

func (t *PriceTracker) add(amount float64, category string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total += amount
	t.session += amount
	t.breakdown[category] += amount
}

// normalizeAudioModel maps realtime model ids reported by the socket
// strategy back to the rate-table keys.
func normalizeAudioModel(model string) string {
	if strings.Contains(model, "gpt-4o-mini-realtime") {
		return "openai_realtime_mini"
	}
	if strings.Contains(model, "gpt-4o-realtime") {
		return "openai_realtime_4o"
	}
	return model
}
