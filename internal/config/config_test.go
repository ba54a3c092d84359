package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSIONS_DIR", "")
	t.Setenv("METRICS_FILE", "")

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.SessionsDir != "sessions" {
		t.Errorf("SessionsDir = %q, want sessions", cfg.SessionsDir)
	}
	if cfg.MetricsFile != "metrics.json" {
		t.Errorf("MetricsFile = %q, want metrics.json", cfg.MetricsFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SESSIONS_DIR", "/tmp/out")
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("MONGO_URI", "mongodb://localhost")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SessionsDir != "/tmp/out" {
		t.Errorf("SessionsDir = %q", cfg.SessionsDir)
	}
	if cfg.GeminiAPIKey != "gk" {
		t.Errorf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
	if cfg.MongoURI != "mongodb://localhost" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
}

func TestCatalogsContainDefaults(t *testing.T) {
	if _, ok := AudioModels[DefaultAudioModel]; !ok {
		t.Errorf("Default audio model %q missing from catalog", DefaultAudioModel)
	}
	if _, ok := QuestionModels[DefaultQuestionModel]; !ok {
		t.Errorf("Default question model %q missing from catalog", DefaultQuestionModel)
	}
	if _, ok := ImageModels[DefaultImageModel]; !ok {
		t.Errorf("Default image model %q missing from catalog", DefaultImageModel)
	}
}
