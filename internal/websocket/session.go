package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/audio"
	"github.com/echocanvas/echocanvas/server/internal/config"
	"github.com/echocanvas/echocanvas/server/internal/ingest"
)

// connState tracks where a connection is in its lifecycle. Transitions only
// move forward: connected, active once the first audio chunk arrives,
// draining when the socket drops, closed when the final flush is done.
type connState int

const (
	stateConnected connState = iota
	stateActive
	stateDraining
	stateClosed
)

// debugReporter is implemented by strategies that can expose their working
// transcript for the debug overlay.
type debugReporter interface {
	DebugText() string
}

// Client is one websocket connection and its private pipeline: the current
// ingest strategy, the dedup router, the generation worker and the display
// pacer. The read pump is the only goroutine that touches the strategy, so
// strategy calls never need locking; fields shared with the worker and pacer
// goroutines sit behind mu.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id     string
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Owned by the read pump.
	state         connState
	strategy      ingest.Strategy
	creds         repositories.Credentials
	audioModel    string
	questionModel string

	// Shared with the worker and pacer goroutines.
	mu         sync.Mutex
	generator  repositories.ImageGenerator
	imageModel string
	minDisplay time.Duration
	debug      bool

	store repositories.SessionStore
	dedup *dedupRouter

	// questions feeds the generation worker, display feeds the pacer.
	questions chan entities.Question
	display   chan entities.DisplayItem

	// pending counts questions enqueued but not yet finished generating.
	// Incremented on enqueue, decremented exactly once per item.
	pending atomic.Int32
}

// newClient builds a connection pipeline with the server defaults. It fails
// only when the default strategy cannot be constructed.
func newClient(hub *Hub, conn *websocket.Conn, id string, logger *zap.Logger) (*Client, error) {
	creds := repositories.Credentials{
		GeminiAPIKey:     hub.cfg.GeminiAPIKey,
		OpenRouterAPIKey: hub.cfg.OpenRouterAPIKey,
		OpenAIAPIKey:     hub.cfg.OpenAIAPIKey,
	}

	strategy, err := hub.catalog.NewStrategy(config.DefaultAudioModel, config.DefaultQuestionModel)
	if err != nil {
		return nil, err
	}
	strategy.UpdateCredentials(creds)

	generator := hub.catalog.NewGenerator(config.DefaultImageModel)
	generator.UpdateCredentials(creds)

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan WriteData, 256),
		id:            id,
		logger:        logger.With(zap.String("clientID", id)),
		ctx:           ctx,
		cancel:        cancel,
		strategy:      strategy,
		creds:         creds,
		audioModel:    config.DefaultAudioModel,
		questionModel: config.DefaultQuestionModel,
		generator:     generator,
		imageModel:    config.DefaultImageModel,
		minDisplay:    config.DefaultMinDisplaySeconds * time.Second,
		store:         hub.newStore(),
		dedup:         newDedupRouter(),
		questions:     make(chan entities.Question, queueCapacity),
		display:       make(chan entities.DisplayItem, queueCapacity),
	}

	hub.costs.ResetSession()
	return client, nil
}

// readPump pumps messages from the websocket connection into the pipeline.
func (c *Client) readPump() {
	defer func() {
		c.drain()
		c.wg.Wait()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.handleMessage(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the send channel to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches one inbound text frame. Malformed JSON and
// unknown types are logged and dropped; they never terminate the connection.
func (c *Client) handleMessage(message []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("Failed to parse message", zap.Error(err))
		return
	}

	switch msg.Type {
	case messageTypeAudio:
		c.handleAudio(msg.Data)
	case messageTypeConfig:
		c.handleConfig(msg)
	case messageTypeGetMetrics:
		c.handleGetMetrics()
	case messageTypeExportSession:
		c.handleExport()
	case messageTypeGetSessions:
		c.handleGetSessions()
	default:
		c.logger.Warn("Unknown message type", zap.String("type", msg.Type))
	}
}

// handleAudio feeds one chunk through the current strategy and routes any
// extracted questions.
func (c *Client) handleAudio(data string) {
	if c.state >= stateDraining {
		return
	}
	if c.state == stateConnected {
		c.state = stateActive
		c.logger.Info("Connection active", zap.String("audioModel", c.audioModel))
	}

	samples, err := audio.DecodeFloat32(data)
	if err != nil {
		c.logger.Warn("Dropping malformed audio chunk", zap.Error(err))
		return
	}

	batch := c.strategy.Process(c.ctx, samples)
	c.routeAndEnqueue(batch)

	c.mu.Lock()
	debug := c.debug
	c.mu.Unlock()
	if debug {
		if reporter, ok := c.strategy.(debugReporter); ok {
			c.sendMessage(debugTextMessage{Type: "debug_text", Text: reporter.DebugText()})
		}
	}
}

// routeAndEnqueue pushes a batch through the dedup router, announces the
// full ordered question history and hands the fresh questions to the
// generation worker. When the worker queue is full the oldest waiting work
// is not displaced; the new question is dropped and logged.
func (c *Client) routeAndEnqueue(batch []entities.Question) {
	fresh := c.dedup.Route(batch)
	if len(fresh) == 0 {
		return
	}

	history := c.dedup.History()
	texts := make([]string, len(history))
	for i, q := range history {
		texts[i] = q.Text
	}
	c.sendMessage(questionsListMessage{Type: "questions_list", Questions: texts})

	for _, q := range fresh {
		c.pending.Add(1)
		select {
		case c.questions <- q:
		default:
			c.pending.Add(-1)
			c.logger.Warn("Generation queue full, dropping question", zap.String("question", q.Text))
		}
	}
}

// handleConfig applies a partial configuration update. An audio model swap
// validates the incoming strategy first, then flushes and closes the old one
// before the new one sees any audio, so no buffered speech is lost and the
// two strategies never run concurrently.
func (c *Client) handleConfig(msg inboundMessage) {
	if msg.GeminiAPIKey != nil {
		c.creds.GeminiAPIKey = *msg.GeminiAPIKey
	}
	if msg.OpenRouterAPIKey != nil {
		c.creds.OpenRouterAPIKey = *msg.OpenRouterAPIKey
	}
	if msg.OpenAIAPIKey != nil {
		c.creds.OpenAIAPIKey = *msg.OpenAIAPIKey
	}

	if msg.QuestionModel != nil && *msg.QuestionModel != c.questionModel {
		c.questionModel = *msg.QuestionModel
		if msg.AudioModel == nil || *msg.AudioModel == c.audioModel {
			c.strategy.SetExtractionModel(c.questionModel)
		}
	}

	if msg.AudioModel != nil && *msg.AudioModel != c.audioModel {
		c.swapStrategy(*msg.AudioModel)
	}

	c.strategy.UpdateCredentials(c.creds)

	c.mu.Lock()
	if msg.ImageModel != nil && *msg.ImageModel != c.imageModel {
		c.imageModel = *msg.ImageModel
		c.generator = c.hub.catalog.NewGenerator(c.imageModel)
		c.logger.Info("Image model set", zap.String("model", c.imageModel))
	}
	c.generator.UpdateCredentials(c.creds)
	if msg.MinDisplayTime != nil {
		seconds := *msg.MinDisplayTime
		if seconds < 0 {
			seconds = 0
		}
		c.minDisplay = time.Duration(seconds) * time.Second
	}
	if msg.Debug != nil {
		c.debug = *msg.Debug
	}
	c.mu.Unlock()

	if msg.SessionName != nil {
		c.store.SetSessionName(*msg.SessionName)
		c.hub.costs.ResetSession()
		c.sendMessage(statusMessage{Type: "status", Message: "Session: " + c.store.Name()})
	}
}

// swapStrategy replaces the ingest strategy. The replacement is constructed
// and validated before the old one is touched; a bad model id keeps the old
// strategy running untouched.
func (c *Client) swapStrategy(audioModel string) {
	replacement, err := c.hub.catalog.NewStrategy(audioModel, c.questionModel)
	if err != nil {
		c.logger.Warn("Rejected audio model", zap.String("model", audioModel), zap.Error(err))
		c.sendMessage(statusMessage{Type: "status", Message: "Unknown audio model: " + audioModel})
		return
	}
	replacement.UpdateCredentials(c.creds)

	c.routeAndEnqueue(c.strategy.Flush(c.ctx))
	if err := c.strategy.Close(); err != nil {
		c.logger.Warn("Failed to close outgoing strategy", zap.Error(err))
	}

	c.strategy = replacement
	c.audioModel = audioModel
	c.logger.Info("Audio model switched", zap.String("model", audioModel))
	c.sendMessage(statusMessage{Type: "status", Message: "Audio model: " + audioModel})
}

func (c *Client) handleGetMetrics() {
	c.sendMessage(metricsMessage{
		Type: "metrics",
		Data: metricsData{
			Latency: c.hub.metrics.Averages(),
			Cost:    c.hub.costs.Stats(),
			Pending: map[string]int{
				"generation": int(c.pending.Load()),
				"display":    len(c.display),
			},
		},
	})
}

func (c *Client) handleExport() {
	path, err := c.store.ExportArchive()
	if err != nil {
		c.logger.Error("Failed to export session", zap.Error(err))
		c.sendMessage(statusMessage{Type: "status", Message: "Export failed"})
		return
	}
	c.sendMessage(exportReadyMessage{Type: "export_ready", Path: path})
}

func (c *Client) handleGetSessions() {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	records, err := c.hub.sessions.List(ctx, 20)
	if err != nil {
		c.logger.Error("Failed to list sessions", zap.Error(err))
		c.sendMessage(statusMessage{Type: "status", Message: "Session list unavailable"})
		return
	}
	if records == nil {
		records = []entities.SessionRecord{}
	}
	c.sendMessage(sessionsListMessage{Type: "sessions_list", Sessions: records})
}

// worker consumes the question queue and generates one image at a time, so
// provider concurrency is bounded per connection.
func (c *Client) worker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case q := <-c.questions:
			c.generate(q)
		}
	}
}

// generate renders one question. The pending counter is released exactly
// once whether generation succeeds, fails or is skipped.
func (c *Client) generate(q entities.Question) {
	defer c.pending.Add(-1)

	c.sendMessage(statusMessage{Type: "status", Message: "Dreaming about: " + q.Text})

	c.mu.Lock()
	generator, model := c.generator, c.imageModel
	c.mu.Unlock()

	start := time.Now()
	url, err := generator.Generate(c.ctx, q.Prompt(), model)
	c.hub.metrics.Observe("image", model, time.Since(start))
	if err != nil {
		c.logger.Warn("Image generation failed", zap.String("model", model), zap.Error(err))
		c.sendMessage(statusMessage{Type: "status", Message: "Image generation failed"})
		return
	}
	if url == "" {
		c.logger.Warn("Image generation returned no image", zap.String("model", model))
		c.sendMessage(statusMessage{Type: "status", Message: "Image generation failed"})
		return
	}

	filename := "img_" + time.Now().Format("150405") + "_" + uuid.NewString()[:8]
	if err := c.store.LogItem(q, filename, url); err != nil {
		c.logger.Warn("Failed to persist session item", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = c.hub.sessions.Append(ctx, c.store.Name(), entities.SessionItem{
		Timestamp: time.Now(),
		Question:  q.Text,
		ImageFile: filename,
	})
	cancel()
	if err != nil {
		c.logger.Warn("Failed to record session history", zap.Error(err))
	}

	item := entities.DisplayItem{
		Question:  q.Text,
		Prompt:    q.Prompt(),
		ImageURL:  url,
		CreatedAt: time.Now(),
	}
	select {
	case c.display <- item:
	case <-c.ctx.Done():
	}
}

// pacer reveals finished images no faster than the configured minimum
// interval. The first image goes out immediately; later ones wait out the
// remainder of the interval. The interval is re-read per item so a config
// change applies to the very next reveal.
func (c *Client) pacer() {
	defer c.wg.Done()

	var lastReveal time.Time
	for {
		select {
		case <-c.ctx.Done():
			return
		case item := <-c.display:
			c.mu.Lock()
			gap := c.minDisplay
			c.mu.Unlock()

			if wait := gap - time.Since(lastReveal); !lastReveal.IsZero() && wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-c.ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}

			c.sendMessage(imageMessage{Type: "image", URL: item.ImageURL, Prompt: item.Prompt})
			c.sendMessage(historyUpdateMessage{Type: "history_update", Item: item})
			lastReveal = time.Now()
		}
	}
}

// drain runs the end-of-connection sequence: flush the strategy so buffered
// speech becomes a final question batch, route it, close the strategy, then
// stop the worker and pacer.
func (c *Client) drain() {
	if c.state >= stateDraining {
		return
	}
	c.state = stateDraining
	c.logger.Info("Draining connection")

	c.routeAndEnqueue(c.strategy.Flush(c.ctx))
	if err := c.strategy.Close(); err != nil {
		c.logger.Warn("Failed to close strategy", zap.Error(err))
	}

	c.state = stateClosed
	c.cancel()
}

// sendMessage queues one outbound frame without blocking the pipeline. A
// saturated send buffer drops the frame.
func (c *Client) sendMessage(v interface{}) {
	payload := marshalMessage(v)
	if payload == nil {
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Outbound buffer full, dropping message")
	}
}
