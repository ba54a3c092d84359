package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/audio"
)

// streamingStrategy drives an incremental transcription engine: every chunk
// is fed to the engine, which returns a stabilized span appended to the
// transcript and a tentative span used only for the current extraction
// attempt.
type streamingStrategy struct {
	engine  repositories.StreamingEngine
	modelID string

	tr   transcript
	ext  extraction
	last string // latest candidate text, surfaced as debug output

	logger *zap.Logger
}

// NewStreaming creates the streaming-engine ingest variant.
func NewStreaming(
	engine repositories.StreamingEngine,
	modelID string,
	extractor repositories.QuestionExtractor,
	newExtractor ExtractorFactory,
	metrics repositories.MetricsRecorder,
	costs repositories.CostTracker,
	logger *zap.Logger,
) Strategy {
	return &streamingStrategy{
		engine:  engine,
		modelID: modelID,
		ext: extraction{
			extractor:    extractor,
			newExtractor: newExtractor,
			metrics:      metrics,
			costs:        costs,
			logger:       logger,
		},
		logger: logger,
	}
}

func (s *streamingStrategy) Process(ctx context.Context, samples []float32) []entities.Question {
	s.ext.costs.TrackAudio(s.modelID, audio.Duration(samples))

	start := time.Now()
	approved, assumption, err := s.engine.Feed(ctx, samples)
	s.ext.metrics.Observe("ingest", s.modelID, time.Since(start))
	if err != nil {
		s.logger.Warn("Streaming engine error", zap.Error(err))
		return nil
	}

	if approved != "" {
		s.tr.appendApproved(approved)
	}

	candidate := s.tr.candidate(assumption)
	s.last = candidate
	if !s.tr.shouldExtract(candidate) {
		return nil
	}
	batch, ok := s.ext.run(ctx, candidate)
	if ok {
		s.tr.markChecked(candidate)
	}
	return batch
}

// Flush makes a final extraction attempt over transcript text the heuristic
// has not examined yet.
func (s *streamingStrategy) Flush(ctx context.Context) []entities.Question {
	candidate := s.tr.candidate("")
	if candidate == "" || candidate == s.tr.lastChecked {
		return nil
	}
	batch, ok := s.ext.run(ctx, candidate)
	if ok {
		s.tr.markChecked(candidate)
	}
	return batch
}

func (s *streamingStrategy) Close() error {
	return s.engine.Close()
}

func (s *streamingStrategy) SetExtractionModel(modelID string) {
	s.ext.setModel(modelID)
}

func (s *streamingStrategy) UpdateCredentials(creds repositories.Credentials) {
	s.ext.updateCredentials(creds)
}

func (s *streamingStrategy) DebugText() string {
	return s.last
}
