package repositories

import "context"

// ImageGenerator renders a prompt into an image returned as a data URL.
// An empty string signals failure; implementations log the cause and never
// propagate provider panics to the caller.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, modelID string) (string, error)
	UpdateCredentials(creds Credentials)
}
