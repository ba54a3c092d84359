package repositories

import (
	"context"

	"github.com/echocanvas/echocanvas/server/domain/entities"
)

// Credentials carries the provider API keys a connection has supplied.
// Fields left empty fall back to the server's environment configuration.
type Credentials struct {
	GeminiAPIKey     string
	OpenRouterAPIKey string
	OpenAIAPIKey     string
}

// QuestionExtractor finds salient questions in a transcript.
//
// A missing credential is not an error: implementations return an empty
// batch so the pipeline keeps running in a degraded mode.
type QuestionExtractor interface {
	Extract(ctx context.Context, transcript string) ([]entities.Question, error)
	UpdateCredentials(creds Credentials)
	// ModelID reports the configured model, used for metrics labels.
	ModelID() string
}
