package imagegen

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter generates images through the OpenRouter images API.
type OpenRouter struct {
	mu     sync.Mutex
	apiKey string
	client *openai.Client

	costs  repositories.CostTracker
	logger *zap.Logger
}

// NewOpenRouter creates an OpenRouter image generator.
func NewOpenRouter(costs repositories.CostTracker, logger *zap.Logger) *OpenRouter {
	return &OpenRouter{costs: costs, logger: logger}
}

// UpdateCredentials installs a new API key.
func (o *OpenRouter) UpdateCredentials(creds repositories.Credentials) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if creds.OpenRouterAPIKey != "" && creds.OpenRouterAPIKey != o.apiKey {
		o.apiKey = creds.OpenRouterAPIKey
		client := openai.NewClient(
			option.WithAPIKey(o.apiKey),
			option.WithBaseURL(openRouterBaseURL),
		)
		o.client = &client
	}
}

// Generate renders the prompt with the given model.
func (o *OpenRouter) Generate(ctx context.Context, prompt string, modelID string) (string, error) {
	o.mu.Lock()
	client := o.client
	o.mu.Unlock()
	if client == nil {
		o.logger.Debug("OpenRouter API key missing, image generation disabled")
		return "", nil
	}

	o.costs.TrackImage(modelID)

	response, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(modelID),
		N:              param.NewOpt(int64(1)),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter image generation failed: %w", err)
	}
	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return "", nil
	}
	return "data:image/png;base64," + response.Data[0].B64JSON, nil
}
