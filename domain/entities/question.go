package entities

import "time"

// Question is one salient question extracted from the live transcript.
// Text is always trimmed and non-empty; a question is unique within a
// session by exact match on Text.
type Question struct {
	Text        string    `json:"text"`
	ImagePrompt string    `json:"image_prompt,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Prompt returns the text handed to the image generator: the explicit
// override when the extractor provided one, otherwise the question itself.
func (q Question) Prompt() string {
	if q.ImagePrompt != "" {
		return q.ImagePrompt
	}
	return q.Text
}

// DisplayItem is a generated image waiting to be revealed to the client.
type DisplayItem struct {
	Question  string    `json:"question"`
	Prompt    string    `json:"prompt"`
	ImageURL  string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
