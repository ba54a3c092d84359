// Package store persists session output to disk: one directory per session
// holding the generated images and a JSON log, exportable as a zip archive.
package store

import (
	"archive/zip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// FileStore implements repositories.SessionStore on the local filesystem.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
	name    string
	history []entities.SessionItem
	logger  *zap.Logger
}

var _ repositories.SessionStore = (*FileStore)(nil)

// NewFileStore creates a store rooted at baseDir with a timestamped default
// session name.
func NewFileStore(baseDir string, logger *zap.Logger) *FileStore {
	s := &FileStore{
		baseDir: baseDir,
		name:    "Session_" + time.Now().Format("20060102_150405"),
		logger:  logger,
	}
	s.ensureDirs()
	return s
}

// SetSessionName renames the session. Unsafe characters are stripped; an
// empty result leaves the current name unchanged.
func (s *FileStore) SetSessionName(name string) {
	safe := sanitizeName(name)
	if safe == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = safe
	s.ensureDirs()
}

// Name returns the current session name.
func (s *FileStore) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// LogItem appends the item to the session log and writes the decoded image
// next to it.
func (s *FileStore) LogItem(question entities.Question, filename string, imageDataURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entities.SessionItem{
		Timestamp: time.Now(),
		Question:  question.Text,
		ImageFile: filename,
	})

	data, ext, err := decodeDataURL(imageDataURL)
	if err != nil {
		return fmt.Errorf("failed to decode image data: %w", err)
	}
	imagePath := filepath.Join(s.imagesDir(), filename+"."+ext)
	if err := os.WriteFile(imagePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	logData, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.sessionDir(), "session_log.json"), logData, 0o644); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	return nil
}

// ExportArchive zips the session directory and returns the archive path.
func (s *FileStore) ExportArchive() (string, error) {
	s.mu.Lock()
	baseDir, name := s.baseDir, s.name
	s.mu.Unlock()
	return ArchiveSession(baseDir, name)
}

// ArchiveSession zips an existing session directory under baseDir and
// returns the archive path. It also serves exports of past sessions that
// no live connection owns.
func ArchiveSession(baseDir, name string) (string, error) {
	name = sanitizeName(name)
	if name == "" {
		return "", fmt.Errorf("invalid session name")
	}
	dir := filepath.Join(baseDir, name)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("session not found: %w", err)
	}
	zipPath := filepath.Join(baseDir, name+".zip")

	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	defer w.Close()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		f, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(f, src)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to build archive: %w", err)
	}
	return zipPath, nil
}

func (s *FileStore) sessionDir() string {
	return filepath.Join(s.baseDir, s.name)
}

func (s *FileStore) imagesDir() string {
	return filepath.Join(s.sessionDir(), "images")
}

// ensureDirs is called with the mutex held (or during construction).
func (s *FileStore) ensureDirs() {
	if err := os.MkdirAll(s.imagesDir(), 0o755); err != nil {
		s.logger.Error("Failed to create session directories", zap.Error(err))
	}
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// decodeDataURL splits a "data:image/png;base64,..." URL into raw bytes and
// a file extension.
func decodeDataURL(dataURL string) ([]byte, string, error) {
	header, encoded, ok := strings.Cut(dataURL, ",")
	if !ok {
		return nil, "", fmt.Errorf("not a data URL")
	}
	ext := "png"
	if mime, _, ok := strings.Cut(strings.TrimPrefix(header, "data:"), ";"); ok {
		if _, sub, ok := strings.Cut(mime, "/"); ok && sub != "" {
			ext = sub
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", err
	}
	return data, ext, nil
}
