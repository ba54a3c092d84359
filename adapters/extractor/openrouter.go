package extractor

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

const openRouterSystemPrompt = "You are a helpful scribe. Extract questions from the transcript. " +
	"Return ONLY the questions separated by '|||' or 'NO'."

// OpenRouter extracts questions through the OpenRouter chat completions API
// using the OpenAI-compatible client.
type OpenRouter struct {
	mu     sync.Mutex
	apiKey string
	client *openai.Client

	model  string
	costs  repositories.CostTracker
	logger *zap.Logger
}

// NewOpenRouter creates an OpenRouter extractor for the given model.
func NewOpenRouter(model string, costs repositories.CostTracker, logger *zap.Logger) *OpenRouter {
	return &OpenRouter{model: model, costs: costs, logger: logger}
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

// ModelID reports the configured model.
func (o *OpenRouter) ModelID() string {
	return o.model
}

// Extract runs the extraction prompt against the transcript. Without a key
// the call silently yields an empty batch.
func (o *OpenRouter) Extract(ctx context.Context, transcript string) ([]entities.Question, error) {
	o.mu.Lock()
	client := o.client
	o.mu.Unlock()
	if client == nil {
		o.logger.Debug("OpenRouter API key missing, extraction disabled")
		return nil, nil
	}

	prompt := fmt.Sprintf(extractionPrompt, transcript)
	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openRouterSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openrouter extraction failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, nil
	}

	result := completion.Choices[0].Message.Content
	o.costs.TrackText(o.model, len(prompt), len(result))
	return ParseQuestions(result), nil
}
