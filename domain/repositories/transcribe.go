package repositories

import (
	"context"

	"github.com/echocanvas/echocanvas/server/domain/entities"
)

// StreamingEngine is an incremental transcription engine. Each Feed call
// returns the text stabilized since the previous call (approved) plus a
// tentative span that may still be revised (assumption). The assumption is
// never persisted by callers, only used transiently.
type StreamingEngine interface {
	Feed(ctx context.Context, samples []float32) (approved string, assumption string, err error)
	Close() error
}

// BatchResult is what a batched transcriber returns: either questions
// extracted directly from the audio, or a raw transcript that still needs a
// separate extraction pass. At most one of the two is populated.
type BatchResult struct {
	Questions  []entities.Question
	Transcript string
}

// BatchTranscriber consumes a complete WAV clip in one remote call.
type BatchTranscriber interface {
	Transcribe(ctx context.Context, wav []byte) (BatchResult, error)
	UpdateCredentials(creds Credentials)
	// ModelID reports the configured model, used for metrics labels.
	ModelID() string
}
