package ingest

import (
	"strings"
	"testing"
)

func TestTranscriptAppendApproved(t *testing.T) {
	var tr transcript

	tr.appendApproved("  hello  ")
	tr.appendApproved("world")
	if tr.text != "hello world" {
		t.Errorf("Expected 'hello world', got %q", tr.text)
	}

	tr.appendApproved("")
	tr.appendApproved("   ")
	if tr.text != "hello world" {
		t.Errorf("Blank spans must not change the transcript, got %q", tr.text)
	}
}

func TestTranscriptPrune(t *testing.T) {
	var tr transcript

	tr.appendApproved(strings.Repeat("a", maxTranscript))
	if len(tr.text) != maxTranscript {
		t.Fatalf("Expected %d chars before prune, got %d", maxTranscript, len(tr.text))
	}

	// One more character tips it over the cap.
	tr.appendApproved("b")
	if len(tr.text) != keepTranscript {
		t.Errorf("Expected prune to %d chars, got %d", keepTranscript, len(tr.text))
	}
	if !strings.HasSuffix(tr.text, "b") {
		t.Errorf("Prune must keep the most recent text")
	}
}

func TestTranscriptShouldExtract(t *testing.T) {
	tests := []struct {
		name        string
		lastChecked string
		candidate   string
		want        bool
	}{
		{
			name:      "empty candidate",
			candidate: "",
			want:      false,
		},
		{
			name:      "first text over threshold",
			candidate: strings.Repeat("x", growthThreshold+1),
			want:      true,
		},
		{
			name:        "growth at threshold",
			lastChecked: "abc",
			candidate:   "abc" + strings.Repeat("x", growthThreshold),
			want:        false,
		},
		{
			name:        "growth over threshold",
			lastChecked: "abc",
			candidate:   "abc" + strings.Repeat("x", growthThreshold+1),
			want:        true,
		},
		{
			name:        "question mark in small delta",
			lastChecked: "tell me",
			candidate:   "tell me why?",
			want:        true,
		},
		{
			name:        "question mark only in old text",
			lastChecked: "why? because",
			candidate:   "why? because so",
			want:        false,
		},
		{
			name:        "no growth",
			lastChecked: "same text",
			candidate:   "same text",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := transcript{lastChecked: tt.lastChecked}
			if got := tr.shouldExtract(tt.candidate); got != tt.want {
				t.Errorf("shouldExtract(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestTranscriptCandidate(t *testing.T) {
	var tr transcript
	tr.appendApproved("stable text")

	if got := tr.candidate("maybe more"); got != "stable text maybe more" {
		t.Errorf("candidate with assumption = %q", got)
	}
	if got := tr.candidate(""); got != "stable text" {
		t.Errorf("candidate without assumption = %q", got)
	}
	// The assumption is transient: it must never leak into the transcript.
	if tr.text != "stable text" {
		t.Errorf("assumption leaked into transcript: %q", tr.text)
	}
}
