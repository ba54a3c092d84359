package websocket

import (
	"encoding/json"
	"testing"
)

func TestInboundMessageParsing(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
		check    func(t *testing.T, msg inboundMessage)
	}{
		{
			name:     "audio message",
			raw:      `{"type":"audio","data":"AAAAAA=="}`,
			wantType: "audio",
			check: func(t *testing.T, msg inboundMessage) {
				if msg.Data != "AAAAAA==" {
					t.Errorf("Data = %q", msg.Data)
				}
			},
		},
		{
			name:     "partial config leaves absent fields nil",
			raw:      `{"type":"config","audioModel":"google_stream","minDisplayTime":10}`,
			wantType: "config",
			check: func(t *testing.T, msg inboundMessage) {
				if msg.AudioModel == nil || *msg.AudioModel != "google_stream" {
					t.Errorf("AudioModel = %v", msg.AudioModel)
				}
				if msg.MinDisplayTime == nil || *msg.MinDisplayTime != 10 {
					t.Errorf("MinDisplayTime = %v", msg.MinDisplayTime)
				}
				if msg.QuestionModel != nil || msg.ImageModel != nil || msg.SessionName != nil {
					t.Errorf("Absent fields must stay nil")
				}
			},
		},
		{
			name:     "explicit zero distinguishes from absent",
			raw:      `{"type":"config","minDisplayTime":0,"debug":false}`,
			wantType: "config",
			check: func(t *testing.T, msg inboundMessage) {
				if msg.MinDisplayTime == nil || *msg.MinDisplayTime != 0 {
					t.Errorf("MinDisplayTime = %v, want explicit 0", msg.MinDisplayTime)
				}
				if msg.Debug == nil || *msg.Debug {
					t.Errorf("Debug = %v, want explicit false", msg.Debug)
				}
			},
		},
		{
			name:     "credentials",
			raw:      `{"type":"config","geminiApiKey":"g","openaiApiKey":""}`,
			wantType: "config",
			check: func(t *testing.T, msg inboundMessage) {
				if msg.GeminiAPIKey == nil || *msg.GeminiAPIKey != "g" {
					t.Errorf("GeminiAPIKey = %v", msg.GeminiAPIKey)
				}
				if msg.OpenAIAPIKey == nil || *msg.OpenAIAPIKey != "" {
					t.Errorf("Empty string key must parse as explicitly set")
				}
				if msg.OpenRouterAPIKey != nil {
					t.Errorf("Absent key must stay nil")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg inboundMessage
			if err := json.Unmarshal([]byte(tt.raw), &msg); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if msg.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", msg.Type, tt.wantType)
			}
			tt.check(t, msg)
		})
	}
}

func TestInboundMessageMalformed(t *testing.T) {
	malformed := []string{
		`{invalid json}`,
		`{"type":}`,
		`[1,2,3]`,
		`"just a string"`,
	}
	for _, raw := range malformed {
		var msg inboundMessage
		if err := json.Unmarshal([]byte(raw), &msg); err == nil {
			t.Errorf("Expected parse error for %q", raw)
		}
	}
}

func TestMarshalOutboundMessages(t *testing.T) {
	tests := []struct {
		name    string
		message interface{}
		want    string
	}{
		{
			name:    "questions list",
			message: questionsListMessage{Type: "questions_list", Questions: []string{"a?"}},
			want:    "questions_list",
		},
		{
			name:    "status",
			message: statusMessage{Type: "status", Message: "ok"},
			want:    "status",
		},
		{
			name:    "image",
			message: imageMessage{Type: "image", URL: "data:image/png;base64,x", Prompt: "p"},
			want:    "image",
		},
		{
			name:    "export ready",
			message: exportReadyMessage{Type: "export_ready", Path: "/tmp/s.zip"},
			want:    "export_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := marshalMessage(tt.message)
			if payload == nil {
				t.Fatalf("marshalMessage returned nil")
			}
			var decoded map[string]interface{}
			if err := json.Unmarshal(payload, &decoded); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if decoded["type"] != tt.want {
				t.Errorf("type = %v, want %q", decoded["type"], tt.want)
			}
		})
	}
}
