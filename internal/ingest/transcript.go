package ingest

import "strings"

const (
	// maxTranscript and keepTranscript bound the rolling transcript: once
	// it exceeds maxTranscript characters it is truncated to the most
	// recent keepTranscript, preserving recent context.
	maxTranscript  = 3000
	keepTranscript = 2000

	// growthThreshold is how many characters the candidate text must grow
	// before extraction is re-attempted without a question mark.
	growthThreshold = 20
)

// transcript accumulates approved text and decides when re-running the
// expensive extraction call is worth it: only when the candidate text grew
// by more than growthThreshold characters since the last attempt, or the
// newly appended text contains a question mark.
type transcript struct {
	text        string
	lastChecked string
}

func (t *transcript) appendApproved(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	t.text = strings.TrimSpace(t.text + " " + s)
	if len(t.text) > maxTranscript {
		t.text = t.text[len(t.text)-keepTranscript:]
	}
}

// candidate is the text the heuristic and extractor see: the persisted
// transcript plus a transient assumption span.
func (t *transcript) candidate(assumption string) string {
	return strings.TrimSpace(t.text + " " + assumption)
}

func (t *transcript) shouldExtract(candidate string) bool {
	if candidate == "" {
		return false
	}
	grown := len(candidate) - len(t.lastChecked)
	if grown > growthThreshold {
		return true
	}
	if grown > 0 && strings.Contains(candidate[len(t.lastChecked):], "?") {
		return true
	}
	return false
}

// markChecked records that an extraction attempt was issued for candidate.
func (t *transcript) markChecked(candidate string) {
	t.lastChecked = candidate
}
