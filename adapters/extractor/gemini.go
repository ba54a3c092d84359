package extractor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// Gemini extracts questions with the native Gemini API.
type Gemini struct {
	mu     sync.Mutex
	apiKey string
	client *genai.Client

	model  string
	costs  repositories.CostTracker
	logger *zap.Logger
}

// NewGemini creates a native Gemini extractor for the given model.
func NewGemini(model string, costs repositories.CostTracker, logger *zap.Logger) *Gemini {
	return &Gemini{model: model, costs: costs, logger: logger}
}

// UpdateCredentials installs a new API key. The client is rebuilt lazily on
// the next call so a key change mid-session takes effect immediately.
func (g *Gemini) UpdateCredentials(creds repositories.Credentials) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if creds.GeminiAPIKey != "" && creds.GeminiAPIKey != g.apiKey {
		g.apiKey = creds.GeminiAPIKey
		g.client = nil
	}
}

// ModelID reports the configured model.
func (g *Gemini) ModelID() string {
	return g.model
}

// Extract runs the extraction prompt against the transcript. A missing API
// key yields an empty batch, not an error.
func (g *Gemini) Extract(ctx context.Context, transcript string) ([]entities.Question, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}

	prompt := fmt.Sprintf(extractionPrompt, transcript)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	response, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini extraction failed: %w", err)
	}

	result := responseText(response)
	g.costs.TrackText(g.model, len(prompt), len(result))
	return ParseQuestions(result), nil
}

func (g *Gemini) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if g.apiKey == "" {
		g.logger.Debug("Gemini API key missing, extraction disabled")
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

// responseText concatenates the text parts of the first candidate.
func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text
}
