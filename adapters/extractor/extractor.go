// Package extractor implements the question-extraction collaborators.
// Providers share a simple text protocol: questions separated by "|||", or
// the sentinel "NO" when the transcript contains no clear question.
package extractor

import (
	"strings"
	"time"

	"github.com/echocanvas/echocanvas/server/domain/entities"
)

const extractionPrompt = `Analyze the transcript. Return ONLY the complete, philosophical, or salient questions asked.
Separate multiple questions with '|||'. If no clear question, return "NO".
Transcript: %q`

const noQuestions = "NO"

// ParseQuestions decodes a provider response in the shared protocol.
func ParseQuestions(response string) []entities.Question {
	response = strings.TrimSpace(response)
	if response == "" || response == noQuestions {
		return nil
	}

	now := time.Now()
	var batch []entities.Question
	for _, part := range strings.Split(response, "|||") {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		batch = append(batch, entities.Question{Text: text, ExtractedAt: now})
	}
	return batch
}
