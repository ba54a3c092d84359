package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/audio"
)

const (
	// realtimeEndpoint is the OpenAI realtime transcription endpoint.
	realtimeEndpoint = "wss://api.openai.com/v1/realtime"

	// fragmentQueueCap bounds the transcript fragments buffered between
	// the listener and Process.
	fragmentQueueCap = 10
)

// fragmentQueue is a fixed-capacity queue of transcript fragments with
// drop-oldest backpressure: on overflow the oldest pending fragment is
// evicted to admit the newest, since stale partial transcripts are less
// useful than current ones.
type fragmentQueue struct {
	mu       sync.Mutex
	items    []string
	capacity int
}

func newFragmentQueue(capacity int) *fragmentQueue {
	return &fragmentQueue{capacity: capacity}
}

func (q *fragmentQueue) push(s string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
	}
	q.items = append(q.items, s)
}

// drain removes and returns all pending fragments in arrival order.
func (q *fragmentQueue) drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// realtimeStrategy holds one persistent websocket connection to a remote
// realtime transcription service. A background listener reads
// transcription-completed events into the fragment queue; Process sends the
// chunk, drains the queue non-blockingly, and runs the extraction heuristic.
type realtimeStrategy struct {
	endpoint string
	model    string
	apiKey   string

	mu       sync.Mutex
	conn     *websocket.Conn
	cancel   context.CancelFunc
	closed   bool

	fragments *fragmentQueue
	tr        transcript
	ext       extraction
	last      string

	logger *zap.Logger
}

// NewRealtime creates the realtime-socket ingest variant for the given
// realtime model id. The connection is established lazily on first use.
func NewRealtime(
	model string,
	extractor repositories.QuestionExtractor,
	newExtractor ExtractorFactory,
	metrics repositories.MetricsRecorder,
	costs repositories.CostTracker,
	logger *zap.Logger,
) Strategy {
	return newRealtimeStrategy(realtimeEndpoint, model, extractor, newExtractor, metrics, costs, logger)
}

func newRealtimeStrategy(
	endpoint string,
	model string,
	extractor repositories.QuestionExtractor,
	newExtractor ExtractorFactory,
	metrics repositories.MetricsRecorder,
	costs repositories.CostTracker,
	logger *zap.Logger,
) *realtimeStrategy {
	return &realtimeStrategy{
		endpoint:  endpoint,
		model:     model,
		fragments: newFragmentQueue(fragmentQueueCap),
		ext: extraction{
			extractor:    extractor,
			newExtractor: newExtractor,
			metrics:      metrics,
			costs:        costs,
			logger:       logger,
		},
		logger: logger,
	}
}

// realtimeEvent covers the subset of server events the listener cares about.
type realtimeEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
}

// ensureConnection dials the remote service on first use. It is idempotent:
// a no-op when the socket is already open.
func (s *realtimeStrategy) ensureConnection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}
	if s.closed {
		return fmt.Errorf("realtime strategy already closed")
	}
	if s.apiKey == "" {
		return fmt.Errorf("realtime transcription requires an OpenAI API key")
	}

	url := fmt.Sprintf("%s?model=%s", s.endpoint, s.model)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("failed to connect realtime socket: %w", err)
	}

	// Text-only session: we want transcripts back, not audio.
	if err := conn.WriteJSON(map[string]interface{}{
		"type": "session.update",
		"session": map[string]interface{}{
			"modalities": []string{"text"},
			"input_audio_transcription": map[string]interface{}{
				"model": "whisper-1",
			},
		},
	}); err != nil {
		conn.Close()
		return fmt.Errorf("failed to initialize realtime session: %w", err)
	}

	listenerCtx, cancel := context.WithCancel(context.Background())
	s.conn = conn
	s.cancel = cancel
	go s.listen(listenerCtx, conn)

	s.logger.Info("Realtime socket connected", zap.String("model", s.model))
	return nil
}

// listen continuously reads transcription-completed events and pushes their
// transcripts into the fragment queue.
func (s *realtimeStrategy) listen(ctx context.Context, conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				s.logger.Warn("Realtime listener stopped", zap.Error(err))
			}
			return
		}

		var event realtimeEvent
		if err := json.Unmarshal(message, &event); err != nil {
			s.logger.Debug("Skipping unparseable realtime event", zap.Error(err))
			continue
		}
		if event.Type == "conversation.item.input_audio_transcription.completed" && event.Transcript != "" {
			s.fragments.push(event.Transcript)
		}
	}
}

func (s *realtimeStrategy) Process(ctx context.Context, samples []float32) []entities.Question {
	s.ext.costs.TrackAudio(s.model, audio.Duration(samples))

	start := time.Now()
	if err := s.ensureConnection(ctx); err != nil {
		s.logger.Warn("Realtime connection unavailable", zap.Error(err))
		return nil
	}

	// Fire-and-forget relative to the listener: the transcript for this
	// chunk arrives asynchronously on a later drain.
	payload := base64.StdEncoding.EncodeToString(audio.PCM16(samples))
	if err := s.conn.WriteJSON(map[string]interface{}{
		"type":  "input_audio_buffer.append",
		"audio": payload,
	}); err != nil {
		s.logger.Warn("Failed to send audio chunk", zap.Error(err))
		s.ext.metrics.Observe("ingest", s.model, time.Since(start))
		return nil
	}

	for _, fragment := range s.fragments.drain() {
		s.tr.appendApproved(fragment)
	}
	s.ext.metrics.Observe("ingest", s.model, time.Since(start))

	candidate := s.tr.candidate("")
	s.last = candidate
	if !s.tr.shouldExtract(candidate) {
		return nil
	}
	batch, ok := s.ext.run(ctx, candidate)
	if ok {
		s.tr.markChecked(candidate)
	}
	return batch
}

// Flush drains any fragments the listener collected after the last chunk
// and makes a final extraction attempt.
func (s *realtimeStrategy) Flush(ctx context.Context) []entities.Question {
	for _, fragment := range s.fragments.drain() {
		s.tr.appendApproved(fragment)
	}
	candidate := s.tr.candidate("")
	if candidate == "" || candidate == s.tr.lastChecked {
		return nil
	}
	batch, ok := s.ext.run(ctx, candidate)
	if ok {
		s.tr.markChecked(candidate)
	}
	return batch
}

// Close cancels the listener and closes the socket. Safe to call multiple
// times.
func (s *realtimeStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Failed to close realtime socket", zap.Error(err))
		}
		s.conn = nil
	}
	return nil
}

func (s *realtimeStrategy) SetExtractionModel(modelID string) {
	s.ext.setModel(modelID)
}

func (s *realtimeStrategy) UpdateCredentials(creds repositories.Credentials) {
	s.apiKey = creds.OpenAIAPIKey
	s.ext.updateCredentials(creds)
}

func (s *realtimeStrategy) DebugText() string {
	return s.last
}
