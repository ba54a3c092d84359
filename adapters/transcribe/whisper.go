package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// Whisper transcribes WAV clips with the OpenAI Whisper REST API. It only
// transcribes; the caller runs question extraction as a second phase.
type Whisper struct {
	mu     sync.Mutex
	apiKey string
	client *openai.Client

	modelID string
	logger  *zap.Logger
}

var _ repositories.BatchTranscriber = (*Whisper)(nil)

// NewWhisper creates the Whisper batched transcriber.
func NewWhisper(modelID string, logger *zap.Logger) *Whisper {
	return &Whisper{modelID: modelID, logger: logger}
}

// UpdateCredentials installs a new API key.
func (w *Whisper) UpdateCredentials(creds repositories.Credentials) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if creds.OpenAIAPIKey != "" && creds.OpenAIAPIKey != w.apiKey {
		w.apiKey = creds.OpenAIAPIKey
		client := openai.NewClient(option.WithAPIKey(w.apiKey))
		w.client = &client
	}
}

// ModelID reports the catalog id of this transcriber.
func (w *Whisper) ModelID() string {
	return w.modelID
}

// Transcribe sends the clip and returns the raw transcript shape.
func (w *Whisper) Transcribe(ctx context.Context, wav []byte) (repositories.BatchResult, error) {
	w.mu.Lock()
	client := w.client
	w.mu.Unlock()
	if client == nil {
		w.logger.Debug("OpenAI API key missing, batched transcription disabled")
		return repositories.BatchResult{}, nil
	}

	transcription, err := client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: openai.AudioModelWhisper1,
	})
	if err != nil {
		return repositories.BatchResult{}, fmt.Errorf("whisper transcription failed: %w", err)
	}
	return repositories.BatchResult{Transcript: transcription.Text}, nil
}
