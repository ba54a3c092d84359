package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/audio"
)

const (
	// batchChunkSamples is how much audio accumulates before a send (~4s).
	batchChunkSamples = audio.SampleRate * 4

	// overlapSamples is the tail of the previous send prepended to the
	// next one (~2s). The overlap keeps questions whose speech crosses a
	// chunk boundary intact: the remote collaborator gets enough left
	// context to complete spans the cut would otherwise split.
	overlapSamples = audio.SampleRate * 2
)

// batchedStrategy accumulates raw samples and ships them to a remote
// batched collaborator once the buffer reaches the chunk threshold. The
// collaborator either extracts questions directly from the audio or returns
// a raw transcript that goes through a second extraction call, depending on
// the selected model.
type batchedStrategy struct {
	transcriber repositories.BatchTranscriber

	buffer []float32
	tail   []float32

	ext  extraction
	last string

	logger *zap.Logger
}

// NewBatched creates the batched-overlap ingest variant.
func NewBatched(
	transcriber repositories.BatchTranscriber,
	extractor repositories.QuestionExtractor,
	newExtractor ExtractorFactory,
	metrics repositories.MetricsRecorder,
	costs repositories.CostTracker,
	logger *zap.Logger,
) Strategy {
	return &batchedStrategy{
		transcriber: transcriber,
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

func (s *batchedStrategy) Process(ctx context.Context, samples []float32) []entities.Question {
	s.buffer = append(s.buffer, samples...)
	if len(s.buffer) < batchChunkSamples {
		return nil
	}

	send := make([]float32, 0, len(s.tail)+len(s.buffer))
	send = append(send, s.tail...)
	send = append(send, s.buffer...)

	s.tail = append([]float32(nil), s.buffer[len(s.buffer)-overlapSamples:]...)
	s.buffer = nil

	return s.send(ctx, send)
}

// Flush sends whatever is currently buffered (tail plus partial buffer)
// exactly once, then clears both, so no audio is silently discarded at
// session end.
func (s *batchedStrategy) Flush(ctx context.Context) []entities.Question {
	if len(s.buffer) == 0 && len(s.tail) == 0 {
		return nil
	}
	send := make([]float32, 0, len(s.tail)+len(s.buffer))
	send = append(send, s.tail...)
	send = append(send, s.buffer...)
	s.tail = nil
	s.buffer = nil
	return s.send(ctx, send)
}

func (s *batchedStrategy) send(ctx context.Context, samples []float32) []entities.Question {
	duration := audio.Duration(samples)
	s.ext.costs.TrackAudio(s.transcriber.ModelID(), duration)
	s.last = fmt.Sprintf("Sent %.1fs audio chunk (%d samples)", duration, len(samples))

	start := time.Now()
	result, err := s.transcriber.Transcribe(ctx, audio.WAV(samples))
	s.ext.metrics.Observe("ingest", s.transcriber.ModelID(), time.Since(start))
	if err != nil {
		s.logger.Warn("Batched transcription failed",
			zap.String("model", s.transcriber.ModelID()),
			zap.Error(err))
		return nil
	}

	if len(result.Questions) > 0 {
		return result.Questions
	}
	if result.Transcript == "" {
		return nil
	}
	// Transcript shape: the collaborator only transcribed, run extraction
	// as a second phase. There is no position to re-arm here; the next
	// chunk ships fresh audio regardless of this attempt's outcome.
	batch, _ := s.ext.run(ctx, result.Transcript)
	return batch
}

func (s *batchedStrategy) Close() error {
	return nil
}

func (s *batchedStrategy) SetExtractionModel(modelID string) {
	s.ext.setModel(modelID)
}

func (s *batchedStrategy) UpdateCredentials(creds repositories.Credentials) {
	s.transcriber.UpdateCredentials(creds)
	s.ext.updateCredentials(creds)
}

func (s *batchedStrategy) DebugText() string {
	return s.last
}
