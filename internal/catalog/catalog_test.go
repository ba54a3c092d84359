package catalog

import (
	"testing"

	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/internal/config"
	"github.com/echocanvas/echocanvas/server/internal/telemetry"
)

func newTestCatalog() *Catalog {
	logger := zap.NewNop()
	return &Catalog{
		Metrics: telemetry.NewRecorder("", logger),
		Costs:   telemetry.NewPriceTracker(),
		Logger:  logger,
	}
}

func TestNewStrategyCoversCatalog(t *testing.T) {
	c := newTestCatalog()

	for id := range config.AudioModels {
		t.Run(id, func(t *testing.T) {
			s, err := c.NewStrategy(id, config.DefaultQuestionModel)
			if err != nil {
				t.Fatalf("NewStrategy(%q): %v", id, err)
			}
			if s == nil {
				t.Fatalf("NewStrategy(%q) returned nil", id)
			}
			if err := s.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
	}
}

func TestNewStrategyUnknownModel(t *testing.T) {
	c := newTestCatalog()
	if _, err := c.NewStrategy("imaginary_model", config.DefaultQuestionModel); err == nil {
		t.Errorf("Expected error for unknown audio model")
	}
}

func TestNewExtractorRouting(t *testing.T) {
	c := newTestCatalog()

	tests := []struct {
		modelID string
	}{
		{"gemini-2.5-flash"},
		{"google/gemini-2.5-flash"},
		{"openai/gpt-4o-mini"},
	}
	for _, tt := range tests {
		ext := c.NewExtractor(tt.modelID)
		if ext == nil {
			t.Fatalf("NewExtractor(%q) returned nil", tt.modelID)
		}
		if got := ext.ModelID(); got != tt.modelID {
			t.Errorf("ModelID = %q, want %q", got, tt.modelID)
		}
	}
}

func TestNewGeneratorCoversCatalog(t *testing.T) {
	c := newTestCatalog()
	for id := range config.ImageModels {
		if gen := c.NewGenerator(id); gen == nil {
			t.Errorf("NewGenerator(%q) returned nil", id)
		}
	}
}
