// Package ingest contains the pluggable audio ingest strategies that turn
// raw audio chunks into batches of extracted questions.
package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// Strategy converts a sequence of raw audio chunks into zero-or-more
// extracted-question batches. Process and Flush never fail: any remote-call
// failure is caught, logged, and surfaces as an empty batch, so the caller
// always receives a batch, never an error.
//
// Exactly one strategy is current per connection at any time; the session
// flushes and closes the outgoing strategy before the incoming one processes
// its first chunk.
type Strategy interface {
	Process(ctx context.Context, samples []float32) []entities.Question
	Flush(ctx context.Context) []entities.Question
	Close() error
	SetExtractionModel(modelID string)
	UpdateCredentials(creds repositories.Credentials)
}

// ExtractorFactory builds a question extractor for a model id. Strategies
// use it when the extraction model is hot-swapped mid-session.
type ExtractorFactory func(modelID string) repositories.QuestionExtractor

// extraction bundles the shared second-phase machinery: the current
// extractor, the factory to replace it, and the telemetry collectors.
type extraction struct {
	extractor    repositories.QuestionExtractor
	newExtractor ExtractorFactory
	creds        repositories.Credentials
	metrics      repositories.MetricsRecorder
	costs        repositories.CostTracker
	logger       *zap.Logger
}

func (e *extraction) setModel(modelID string) {
	e.extractor = e.newExtractor(modelID)
	e.extractor.UpdateCredentials(e.creds)
	e.logger.Info("Extraction model set", zap.String("model", modelID))
}

func (e *extraction) updateCredentials(creds repositories.Credentials) {
	e.creds = creds
	e.extractor.UpdateCredentials(creds)
}

// run executes one extraction attempt. Failures are swallowed: the batch is
// empty and ok is false so the caller leaves its transcript position
// unchanged and the growth threshold re-arms on the next chunk.
func (e *extraction) run(ctx context.Context, transcript string) (batch []entities.Question, ok bool) {
	start := time.Now()
	batch, err := e.extractor.Extract(ctx, transcript)
	e.metrics.Observe("extraction", e.extractor.ModelID(), time.Since(start))
	if err != nil {
		e.logger.Warn("Question extraction failed",
			zap.String("model", e.extractor.ModelID()),
			zap.Error(err))
		return nil, false
	}
	return batch, true
}
