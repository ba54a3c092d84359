package store

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/entities"
)

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
}

func TestFileStoreDefaultName(t *testing.T) {
	s := NewFileStore(t.TempDir(), zap.NewNop())
	if s.Name() == "" {
		t.Errorf("Expected a timestamped default name")
	}
}

func TestFileStoreSetSessionName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Evening Talk", "Evening Talk"},
		{"strips unsafe characters", "a/b\\c:d*e?", "abcde"},
		{"keeps dashes and underscores", "my-session_1", "my-session_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewFileStore(t.TempDir(), zap.NewNop())
			s.SetSessionName(tt.input)
			if got := s.Name(); got != tt.want {
				t.Errorf("Name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileStoreRejectsEmptySanitizedName(t *testing.T) {
	s := NewFileStore(t.TempDir(), zap.NewNop())
	before := s.Name()
	s.SetSessionName("///***")
	if got := s.Name(); got != before {
		t.Errorf("Name changed to %q, want unchanged %q", got, before)
	}
}

func TestFileStoreLogItem(t *testing.T) {
	baseDir := t.TempDir()
	s := NewFileStore(baseDir, zap.NewNop())
	s.SetSessionName("test-session")

	q := entities.Question{Text: "What is a file?"}
	if err := s.LogItem(q, "img_001", pngDataURL()); err != nil {
		t.Fatalf("LogItem: %v", err)
	}

	imagePath := filepath.Join(baseDir, "test-session", "images", "img_001.png")
	if _, err := os.Stat(imagePath); err != nil {
		t.Errorf("Image not written: %v", err)
	}

	logPath := filepath.Join(baseDir, "test-session", "session_log.json")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Session log not written: %v", err)
	}
	var items []entities.SessionItem
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("Bad session log: %v", err)
	}
	if len(items) != 1 || items[0].Question != "What is a file?" {
		t.Errorf("Log items = %v", items)
	}
}

func TestFileStoreLogItemBadDataURL(t *testing.T) {
	s := NewFileStore(t.TempDir(), zap.NewNop())
	if err := s.LogItem(entities.Question{Text: "q"}, "img", "not a data url"); err == nil {
		t.Errorf("Expected error for malformed data URL")
	}
}

func TestFileStoreExportArchive(t *testing.T) {
	baseDir := t.TempDir()
	s := NewFileStore(baseDir, zap.NewNop())
	s.SetSessionName("export-me")
	if err := s.LogItem(entities.Question{Text: "q?"}, "img_001", pngDataURL()); err != nil {
		t.Fatalf("LogItem: %v", err)
	}

	path, err := s.ExportArchive()
	if err != nil {
		t.Fatalf("ExportArchive: %v", err)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Archive unreadable: %v", err)
	}
	defer r.Close()

	names := make(map[string]bool)
	for _, f := range r.File {
		names[f.Name] = true
	}
	if !names["session_log.json"] {
		t.Errorf("Archive missing session log, has %v", names)
	}
	if !names["images/img_001.png"] {
		t.Errorf("Archive missing image, has %v", names)
	}
}

func TestArchiveSessionUnknownName(t *testing.T) {
	if _, err := ArchiveSession(t.TempDir(), "nope"); err == nil {
		t.Errorf("Expected error for unknown session")
	}
	if _, err := ArchiveSession(t.TempDir(), "///"); err == nil {
		t.Errorf("Expected error for unsafe name")
	}
}

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	repo.Append(ctx, "first", entities.SessionItem{Question: "a?"})
	repo.Append(ctx, "second", entities.SessionItem{Question: "b?"})
	repo.Append(ctx, "first", entities.SessionItem{Question: "c?"})

	records, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(records))
	}
	// Newest session first.
	if records[0].Name != "second" {
		t.Errorf("records[0] = %q, want second", records[0].Name)
	}
	if len(records[1].Items) != 2 {
		t.Errorf("first session has %d items, want 2", len(records[1].Items))
	}

	limited, _ := repo.List(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("Limit ignored, got %d records", len(limited))
	}
}
