package websocket

import (
	"encoding/json"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// inboundMessage is the envelope of every client message. Pointer fields of
// the config message distinguish "absent" from "set to zero value".
type inboundMessage struct {
	Type string `json:"type"`

	// audio
	Data string `json:"data,omitempty"`

	// config
	GeminiAPIKey     *string `json:"geminiApiKey,omitempty"`
	OpenRouterAPIKey *string `json:"openRouterApiKey,omitempty"`
	OpenAIAPIKey     *string `json:"openaiApiKey,omitempty"`
	AudioModel       *string `json:"audioModel,omitempty"`
	QuestionModel    *string `json:"questionModel,omitempty"`
	ImageModel       *string `json:"imageModel,omitempty"`
	MinDisplayTime   *int    `json:"minDisplayTime,omitempty"`
	SessionName      *string `json:"sessionName,omitempty"`
	Debug            *bool   `json:"debug,omitempty"`
}

const (
	messageTypeAudio         = "audio"
	messageTypeConfig        = "config"
	messageTypeGetMetrics    = "get_metrics"
	messageTypeExportSession = "export_session"
	messageTypeGetSessions   = "get_sessions"
)

type questionsListMessage struct {
	Type      string   `json:"type"`
	Questions []string `json:"questions"`
}

type statusMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type historyUpdateMessage struct {
	Type string               `json:"type"`
	Item entities.DisplayItem `json:"item"`
}

type imageMessage struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

type exportReadyMessage struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type metricsMessage struct {
	Type string      `json:"type"`
	Data metricsData `json:"data"`
}

type metricsData struct {
	Latency map[string]float64     `json:"latency"`
	Cost    repositories.CostStats `json:"cost"`
	Pending map[string]int         `json:"pending"`
}

type sessionsListMessage struct {
	Type     string                   `json:"type"`
	Sessions []entities.SessionRecord `json:"sessions"`
}

type debugTextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// marshalMessage encodes an outbound message. Marshalling these types
// cannot fail; a nil return is only possible on programmer error.
func marshalMessage(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
