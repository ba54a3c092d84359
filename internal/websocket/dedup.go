package websocket

import (
	"strings"
	"sync"

	"github.com/echocanvas/echocanvas/server/domain/entities"
)

// dedupRouter suppresses re-surfacing of previously seen questions within
// one session. Matching is exact string equality on the trimmed question
// text; a question differing only in image prompt or summary is still a
// duplicate. Once a question is in the set it is never re-queued for the
// lifetime of the session, even across ingest-strategy swaps.
type dedupRouter struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	history []entities.Question
}

func newDedupRouter() *dedupRouter {
	return &dedupRouter{seen: make(map[string]struct{})}
}

// Route returns the sub-sequence of batch not previously seen, preserving
// extraction order, and marks them seen.
func (r *dedupRouter) Route(batch []entities.Question) []entities.Question {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fresh []entities.Question
	for _, q := range batch {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		if _, dup := r.seen[text]; dup {
			continue
		}
		q.Text = text
		r.seen[text] = struct{}{}
		r.history = append(r.history, q)
		fresh = append(fresh, q)
	}
	return fresh
}

// History returns a copy of the full ordered question history.
func (r *dedupRouter) History() []entities.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.Question(nil), r.history...)
}
