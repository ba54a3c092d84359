package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// scriptedEngine returns pre-arranged (approved, assumption) pairs, one per
// Feed call.
type scriptedEngine struct {
	steps  []struct{ approved, assumption string }
	next   int
	closed bool
}

func (e *scriptedEngine) Feed(ctx context.Context, samples []float32) (string, string, error) {
	if e.next >= len(e.steps) {
		return "", "", nil
	}
	step := e.steps[e.next]
	e.next++
	return step.approved, step.assumption, nil
}

func (e *scriptedEngine) Close() error {
	e.closed = true
	return nil
}

func newStreamingForTest(engine repositories.StreamingEngine, ext *fakeExtractor) Strategy {
	return NewStreaming(engine, "fake-stream", ext,
		func(string) repositories.QuestionExtractor { return ext },
		nopMetrics{}, nopCosts{}, zap.NewNop())
}

func TestStreamingExtractsOnGrowth(t *testing.T) {
	long := strings.Repeat("words and more ", 3) // > growthThreshold chars
	engine := &scriptedEngine{steps: []struct{ approved, assumption string }{
		{approved: long},
	}}
	ext := &fakeExtractor{}
	s := newStreamingForTest(engine, ext)

	s.Process(context.Background(), make([]float32, 160))
	if ext.callCount() != 1 {
		t.Fatalf("Expected extraction after large growth, got %d calls", ext.callCount())
	}
}

func TestStreamingHoldsBackSmallGrowth(t *testing.T) {
	engine := &scriptedEngine{steps: []struct{ approved, assumption string }{
		{approved: "short"},
	}}
	ext := &fakeExtractor{}
	s := newStreamingForTest(engine, ext)

	s.Process(context.Background(), make([]float32, 160))
	if ext.callCount() != 0 {
		t.Errorf("Expected no extraction for small growth, got %d calls", ext.callCount())
	}
}

func TestStreamingAssumptionIsTransient(t *testing.T) {
	engine := &scriptedEngine{steps: []struct{ approved, assumption string }{
		{approved: "", assumption: "could this tentative span be long enough?"},
		{approved: "", assumption: ""},
	}}
	ext := &fakeExtractor{}
	s := newStreamingForTest(engine, ext)
	ctx := context.Background()

	s.Process(ctx, make([]float32, 160))
	if ext.callCount() != 1 {
		t.Fatalf("Expected extraction over the assumption span, got %d calls", ext.callCount())
	}
	if !strings.Contains(ext.lastCall(), "tentative span") {
		t.Errorf("Extraction input should include the assumption, got %q", ext.lastCall())
	}

	// The assumption vanished: the candidate shrank back, no re-extraction.
	s.Process(ctx, make([]float32, 160))
	if ext.callCount() != 1 {
		t.Errorf("Shrunken candidate must not re-extract, got %d calls", ext.callCount())
	}
}

func TestStreamingRetriesAfterFailedExtraction(t *testing.T) {
	long := strings.Repeat("words and more ", 3)
	engine := &scriptedEngine{steps: []struct{ approved, assumption string }{
		{approved: long},
		{approved: ""},
	}}
	ext := &fakeExtractor{err: errors.New("provider down")}
	s := newStreamingForTest(engine, ext)
	ctx := context.Background()

	s.Process(ctx, make([]float32, 160))
	if ext.callCount() != 1 {
		t.Fatalf("Expected first attempt, got %d calls", ext.callCount())
	}

	// The failed attempt must not advance the position: the same growth is
	// still pending, so the next chunk re-triggers.
	s.Process(ctx, make([]float32, 160))
	if ext.callCount() != 2 {
		t.Fatalf("Expected a retry after failure, got %d total calls", ext.callCount())
	}

	// Once extraction succeeds the position advances and re-triggering stops.
	ext.mu.Lock()
	ext.err = nil
	ext.mu.Unlock()
	s.Process(ctx, make([]float32, 160))
	s.Process(ctx, make([]float32, 160))
	if ext.callCount() != 3 {
		t.Errorf("Expected no re-trigger after success, got %d total calls", ext.callCount())
	}
}

func TestStreamingFlushCoversUncheckedText(t *testing.T) {
	engine := &scriptedEngine{steps: []struct{ approved, assumption string }{
		{approved: "a short tail"},
	}}
	ext := &fakeExtractor{}
	s := newStreamingForTest(engine, ext)
	ctx := context.Background()

	// Below the growth threshold during the session.
	s.Process(ctx, make([]float32, 160))
	if ext.callCount() != 0 {
		t.Fatalf("Premature extraction: %d calls", ext.callCount())
	}

	// Flush must examine what the heuristic skipped.
	s.Flush(ctx)
	if ext.callCount() != 1 {
		t.Fatalf("Expected final extraction on flush, got %d calls", ext.callCount())
	}
	if ext.lastCall() != "a short tail" {
		t.Errorf("Flush extraction input = %q", ext.lastCall())
	}

	// And only once.
	s.Flush(ctx)
	if ext.callCount() != 1 {
		t.Errorf("Second flush must not re-extract, got %d calls", ext.callCount())
	}
}

func TestStreamingCloseClosesEngine(t *testing.T) {
	engine := &scriptedEngine{}
	s := newStreamingForTest(engine, &fakeExtractor{})

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !engine.closed {
		t.Errorf("Engine must be closed with the strategy")
	}
}
