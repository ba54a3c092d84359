// Package config loads server configuration from the environment and holds
// the model catalogs shared by the strategy and collaborator factories.
package config

import "os"

// Default model selections applied to every new connection until the client
// sends a config message.
const (
	DefaultAudioModel    = "openai_realtime_4o"
	DefaultQuestionModel = "gemini-2.5-flash"
	DefaultImageModel    = "google/gemini-2.5-flash-image"

	// DefaultMinDisplaySeconds is the minimum interval between two
	// consecutive image reveals.
	DefaultMinDisplaySeconds = 6
)

// AudioModels lists the selectable audio ingest strategies.
var AudioModels = map[string]string{
	"google_stream":        "Google Cloud STT - Streaming (low latency)",
	"gemini_flash_audio":   "Gemini 2.5 Flash (Native) - Batched ~4-6s, overlapping for completeness",
	"openai_realtime_4o":   "GPT-4o Realtime (WebSocket) - Streaming (lowest latency)",
	"openai_realtime_mini": "GPT-4o Mini Realtime (WebSocket) - Streaming (low latency, cheaper)",
	"openai_rest_whisper":  "Whisper V1 (REST) - Batched ~4-6s (slower, simpler)",
}

// QuestionModels lists the selectable extraction models. Slash-prefixed ids
// are routed through OpenRouter, the rest through the native Gemini API.
var QuestionModels = map[string]string{
	"gemini-2.5-flash":                 "Gemini 2.5 Flash (Native)",
	"google/gemini-2.5-flash-lite":     "Gemini 2.5 Flash Lite (OpenRouter)",
	"google/gemini-2.5-flash":          "Gemini 2.5 Flash (OpenRouter)",
	"openai/gpt-4o-mini":               "GPT-4o Mini (OpenRouter)",
	"meta-llama/llama-3.2-3b-instruct": "Llama 3.2 3B (OpenRouter)",
}

// ImageModels lists the selectable image generation models.
var ImageModels = map[string]string{
	"google/gemini-2.5-flash-image":         "Gemini 2.5 Flash Image (Native)",
	"google/gemini-2.5-flash-image-preview": "Gemini 2.5 Flash Image Preview (Native)",
	"google/gemini-3-pro-image-preview":     "Gemini 3 Pro Image (Native)",
	"openai/gpt-5-image-mini":               "GPT-5 Image Mini (OpenRouter)",
	"stabilityai/stable-diffusion-3-medium": "SD3 Medium (OpenRouter)",
}

// Config is the server-level configuration resolved at startup.
type Config struct {
	Port        string
	SessionsDir string
	MetricsFile string
	MongoURI    string

	GeminiAPIKey     string
	OpenRouterAPIKey string
	OpenAIAPIKey     string
}

// Load reads configuration from the environment. Call godotenv.Load before
// this to pick up a local .env file.
func Load() *Config {
	return &Config{
		Port:             getenv("PORT", "8000"),
		SessionsDir:      getenv("SESSIONS_DIR", "sessions"),
		MetricsFile:      getenv("METRICS_FILE", "metrics.json"),
		MongoURI:         os.Getenv("MONGO_URI"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
