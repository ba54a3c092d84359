// Package catalog maps configuration model identifiers to concrete
// collaborator implementations. The mappings are total: an audio model id
// outside the catalog yields an explicit error rather than falling through
// silently.
package catalog

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/adapters/extractor"
	"github.com/echocanvas/echocanvas/server/adapters/imagegen"
	"github.com/echocanvas/echocanvas/server/adapters/stt"
	"github.com/echocanvas/echocanvas/server/adapters/transcribe"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/ingest"
)

// Catalog builds strategies and collaborators from model identifiers,
// threading the injected telemetry collectors through.
type Catalog struct {
	Metrics repositories.MetricsRecorder
	Costs   repositories.CostTracker
	Logger  *zap.Logger
}

// NewExtractor maps a question-model id to an extractor. Slash-prefixed ids
// (google/..., openai/..., meta-llama/...) are served by OpenRouter, the
// rest by the native Gemini API.
func (c *Catalog) NewExtractor(modelID string) repositories.QuestionExtractor {
	if strings.Contains(modelID, "/") {
		return extractor.NewOpenRouter(modelID, c.Costs, c.Logger)
	}
	return extractor.NewGemini(modelID, c.Costs, c.Logger)
}

// NewGenerator maps an image-model id to a generator. Native Gemini image
// models go to the Gemini API, everything else through OpenRouter.
func (c *Catalog) NewGenerator(modelID string) repositories.ImageGenerator {
	if strings.HasPrefix(modelID, "google/gemini") && strings.Contains(modelID, "image") {
		return imagegen.NewGemini(c.Costs, c.Logger)
	}
	return imagegen.NewOpenRouter(c.Costs, c.Logger)
}

// NewStrategy maps an audio-model id to an ingest strategy wired with an
// extractor for questionModel. Unknown ids are an error.
func (c *Catalog) NewStrategy(audioModel, questionModel string) (ingest.Strategy, error) {
	ext := c.NewExtractor(questionModel)
	factory := ingest.ExtractorFactory(c.NewExtractor)

	switch audioModel {
	case "google_stream":
		engine := stt.NewGoogleStreamingEngine("en-US", c.Logger)
		return ingest.NewStreaming(engine, audioModel, ext, factory, c.Metrics, c.Costs, c.Logger), nil

	case "openai_realtime_4o":
		return ingest.NewRealtime("gpt-4o-realtime-preview-2024-10-01", ext, factory, c.Metrics, c.Costs, c.Logger), nil

	case "openai_realtime_mini":
		return ingest.NewRealtime("gpt-4o-mini-realtime-preview-2024-12-17", ext, factory, c.Metrics, c.Costs, c.Logger), nil

	case "gemini_flash_audio":
		tr := transcribe.NewGemini(audioModel, c.Logger)
		return ingest.NewBatched(tr, ext, factory, c.Metrics, c.Costs, c.Logger), nil

	case "openai_rest_whisper":
		tr := transcribe.NewWhisper(audioModel, c.Logger)
		return ingest.NewBatched(tr, ext, factory, c.Metrics, c.Costs, c.Logger), nil

	default:
		return nil, fmt.Errorf("unsupported audio model %q", audioModel)
	}
}
