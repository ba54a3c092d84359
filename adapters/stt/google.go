// Package stt provides the streaming transcription engine behind the
// streaming ingest variant.
package stt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/audio"
)

type recognition struct {
	text  string
	final bool
}

// GoogleStreamingEngine implements repositories.StreamingEngine on Google
// Cloud Speech-to-Text. Final results become the approved span; the latest
// interim hypothesis is surfaced as the assumption span.
type GoogleStreamingEngine struct {
	mu      sync.Mutex
	client  *speech.Client
	stream  speechpb.Speech_StreamingRecognizeClient
	results chan recognition
	closed  bool

	language   string
	assumption string
	logger     *zap.Logger
}

var _ repositories.StreamingEngine = (*GoogleStreamingEngine)(nil)

// NewGoogleStreamingEngine creates an engine. The gRPC stream is opened
// lazily on the first Feed so construction never needs credentials.
func NewGoogleStreamingEngine(language string, logger *zap.Logger) *GoogleStreamingEngine {
	if language == "" {
		language = "en-US"
	}
	return &GoogleStreamingEngine{
		language: language,
		results:  make(chan recognition, 32),
		logger:   logger,
	}
}

// Feed sends one chunk to the recognizer and returns the text stabilized
// since the last call plus the current tentative hypothesis. It never
// blocks on recognition results; they are drained as they arrive.
func (g *GoogleStreamingEngine) Feed(ctx context.Context, samples []float32) (string, string, error) {
	if err := g.ensureStream(ctx); err != nil {
		return "", "", err
	}

	if len(samples) > 0 {
		if err := g.stream.Send(&speechpb.StreamingRecognizeRequest{
			StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
				AudioContent: audio.PCM16(samples),
			},
		}); err != nil {
			return "", "", fmt.Errorf("failed to send audio data: %w", err)
		}
	}

	var approved []string
	for {
		select {
		case r := <-g.results:
			if r.final {
				approved = append(approved, r.text)
				g.assumption = ""
			} else {
				g.assumption = r.text
			}
			continue
		default:
		}
		break
	}

	return strings.Join(approved, " "), g.assumption, nil
}

func (g *GoogleStreamingEngine) ensureStream(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stream != nil {
		return nil
	}
	if g.closed {
		return fmt.Errorf("streaming engine already closed")
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}

	// Detach the stream from the request context so it outlives a single
	// Feed call.
	stream, err := client.StreamingRecognize(context.Background())
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: audio.SampleRate,
					LanguageCode:    g.language,
				},
				InterimResults: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return fmt.Errorf("failed to send streaming config: %w", err)
	}

	g.client = client
	g.stream = stream
	go g.receive(stream)

	g.logger.Info("Speech recognition stream opened", zap.String("language", g.language))
	return nil
}

// receive pumps recognition results into the buffered channel. When the
// channel is full the result is dropped; the next interim supersedes it
// anyway.
func (g *GoogleStreamingEngine) receive(stream speechpb.Speech_StreamingRecognizeClient) {
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			g.mu.Lock()
			closed := g.closed
			g.mu.Unlock()
			if !closed {
				g.logger.Warn("Speech recognition stream error", zap.Error(err))
			}
			return
		}

		for _, result := range resp.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			r := recognition{
				text:  result.Alternatives[0].Transcript,
				final: result.IsFinal,
			}
			select {
			case g.results <- r:
			default:
			}
		}
	}
}

// Close tears down the stream and client. Safe to call multiple times.
func (g *GoogleStreamingEngine) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	if g.stream != nil {
		if err := g.stream.CloseSend(); err != nil {
			g.logger.Warn("Failed to close recognition stream", zap.Error(err))
		}
		g.stream = nil
	}
	if g.client != nil {
		if err := g.client.Close(); err != nil {
			g.logger.Warn("Failed to close speech client", zap.Error(err))
		}
		g.client = nil
	}
	return nil
}
