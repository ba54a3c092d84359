// Package transcribe implements the batched transcription collaborators
// behind the batched-overlap ingest variant. The Gemini adapter does
// transcription and extraction in one call; the Whisper adapter only
// transcribes and leaves extraction to the second phase.
package transcribe

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echocanvas/echocanvas/server/adapters/extractor"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

const geminiAudioPrompt = "Listen to this audio. If there is a clear philosophical or salient question asked, " +
	"transcribe ONLY the question text. If there are several, separate them with '|||'. " +
	"If there is just conversation or silence, return 'NO'."

// Gemini sends WAV clips to a Gemini audio-capable model and gets extracted
// questions back directly.
type Gemini struct {
	mu     sync.Mutex
	apiKey string
	client *genai.Client

	modelID string // catalog id, used for metrics and cost labels
	model   string // provider model name
	logger  *zap.Logger
}

var _ repositories.BatchTranscriber = (*Gemini)(nil)

// NewGemini creates the Gemini batched transcriber.
func NewGemini(modelID string, logger *zap.Logger) *Gemini {
	return &Gemini{
		modelID: modelID,
		model:   "gemini-2.5-flash",
		logger:  logger,
	}
}

// UpdateCredentials installs a new API key.
func (g *Gemini) UpdateCredentials(creds repositories.Credentials) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if creds.GeminiAPIKey != "" && creds.GeminiAPIKey != g.apiKey {
		g.apiKey = creds.GeminiAPIKey
		g.client = nil
	}
}

// ModelID reports the catalog id of this transcriber.
func (g *Gemini) ModelID() string {
	return g.modelID
}

// Transcribe sends the clip and parses the direct-question response shape.
func (g *Gemini) Transcribe(ctx context.Context, wav []byte) (repositories.BatchResult, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return repositories.BatchResult{}, err
	}
	if client == nil {
		return repositories.BatchResult{}, nil
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(geminiAudioPrompt),
			genai.NewPartFromBytes(wav, "audio/wav"),
		}, genai.RoleUser),
	}

	response, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return repositories.BatchResult{}, fmt.Errorf("gemini audio request failed: %w", err)
	}

	var text string
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, part := range response.Candidates[0].Content.Parts {
			text += part.Text
		}
	}
	return repositories.BatchResult{Questions: extractor.ParseQuestions(text)}, nil
}

func (g *Gemini) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if g.apiKey == "" {
		g.logger.Debug("Gemini API key missing, batched transcription disabled")
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return client, nil
}
