package repositories

import (
	"context"

	"github.com/echocanvas/echocanvas/server/domain/entities"
)

// SessionStore persists generated items for one session and can export the
// whole session as a downloadable archive. Writes are funneled through the
// owning connection session so calls never interleave.
type SessionStore interface {
	// SetSessionName renames the session; unsafe characters are stripped
	// and an empty result leaves the current name unchanged.
	SetSessionName(name string)
	Name() string
	// LogItem records a generated item and writes the decoded image to disk.
	LogItem(question entities.Question, filename string, imageDataURL string) error
	// ExportArchive zips the session directory and returns the archive path.
	ExportArchive() (string, error)
}

// SessionRepository keeps the question history of past and current sessions
// for the session-list request.
type SessionRepository interface {
	Append(ctx context.Context, session string, item entities.SessionItem) error
	List(ctx context.Context, limit int) ([]entities.SessionRecord, error)
}
