package store

import (
	"context"
	"sync"
	"time"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// MemorySessionRepository is the in-memory fallback used when no MongoDB
// URI is configured. History is lost on restart.
type MemorySessionRepository struct {
	mu      sync.Mutex
	records map[string]*entities.SessionRecord
	order   []string
}

var _ repositories.SessionRepository = (*MemorySessionRepository)(nil)

// NewMemorySessionRepository creates an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{records: make(map[string]*entities.SessionRecord)}
}

// Append adds an item to the named session, creating the record on first use.
func (r *MemorySessionRepository) Append(ctx context.Context, session string, item entities.SessionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[session]
	if !ok {
		record = &entities.SessionRecord{Name: session, StartedAt: time.Now()}
		r.records[session] = record
		r.order = append(r.order, session)
	}
	record.Items = append(record.Items, item)
	return nil
}

// List returns the most recent sessions, newest first.
func (r *MemorySessionRepository) List(ctx context.Context, limit int) ([]entities.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entities.SessionRecord
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *r.records[r.order[i]])
	}
	return out, nil
}
