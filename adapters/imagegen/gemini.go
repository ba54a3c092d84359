// Package imagegen implements the image-generation collaborators. Both
// providers return the image as a data URL; an empty string signals failure
// and never aborts the pipeline.
package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// Gemini generates images with the native Gemini API.
type Gemini struct {
	mu     sync.Mutex
	apiKey string
	client *genai.Client

	costs  repositories.CostTracker
	logger *zap.Logger
}

// NewGemini creates a native Gemini image generator.
func NewGemini(costs repositories.CostTracker, logger *zap.Logger) *Gemini {
	return &Gemini{costs: costs, logger: logger}
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

// Generate renders the prompt with the given model. Catalog ids carry a
// "google/" prefix the native API does not use.
func (g *Gemini) Generate(ctx context.Context, prompt string, modelID string) (string, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", nil
	}

	g.costs.TrackImage(modelID)
	target := strings.TrimPrefix(modelID, "google/")

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	}

	response, err := client.Models.GenerateContent(ctx, target, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini image generation failed: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", nil
	}
	for _, part := range response.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return fmt.Sprintf("data:%s;base64,%s",
				part.InlineData.MIMEType,
				base64.StdEncoding.EncodeToString(part.InlineData.Data)), nil
		}
	}
	return "", nil
}

func (g *Gemini) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if g.apiKey == "" {
		g.logger.Debug("Gemini API key missing, image generation disabled")
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
