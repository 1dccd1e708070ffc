package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/pkg/logger"
)

var testGeneration = domain.GenerationSettings{Temperature: 0.7, TopP: 0.95, MaxOutputTokens: 2048}

func TestGeminiAdapter_BuildRequest(t *testing.T) {
	adapter := GeminiAdapter{BaseURL: "https://gemini.test/v1beta/", Generation: testGeneration}
	prompt := domain.BuildPrompt(domain.AskRequest{
		Question:   "what?",
		PageText:   "page body",
		Selection:  "picked",
		Screenshot: &domain.Screenshot{MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}, "zh-tw")

	req, err := adapter.BuildRequest(context.Background(), domain.Credentials{APIKey: "AIza+key", Model: "gemini-2.5-flash"}, prompt)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Method != http.MethodPost {
		t.Fatalf("method = %s", req.Method)
	}
	if got := req.URL.Path; got != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Fatalf("path = %s", got)
	}
	if got := req.URL.Query().Get("key"); got != "AIza+key" {
		t.Fatalf("key query = %q", got)
	}

	var body struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"contents"`
		GenerationConfig map[string]float64 `json:"generationConfig"`
	}
	raw, _ := io.ReadAll(req.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Contents) != 1 || body.Contents[0].Role != "user" {
		t.Fatalf("contents = %+v", body.Contents)
	}
	parts := body.Contents[0].Parts
	if len(parts) != 5 {
		t.Fatalf("parts = %d, want 5", len(parts))
	}
	if parts[0].Text != prompt.System ||
		parts[1].Text != "Full page content for context:\npage body" ||
		parts[2].Text != "Selected text (main focus):\npicked" ||
		parts[3].InlineData == nil || parts[3].InlineData.MimeType != "image/png" || parts[3].InlineData.Data != "iVBORw==" ||
		parts[4].Text != "what?" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	want := map[string]float64{"temperature": 0.7, "topP": 0.95, "maxOutputTokens": 2048}
	if diff := cmp.Diff(want, body.GenerationConfig); diff != "" {
		t.Fatalf("generationConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestGeminiAdapter_PageOnlyParts(t *testing.T) {
	adapter := GeminiAdapter{Generation: testGeneration}
	prompt := domain.BuildPrompt(domain.AskRequest{Question: "q", PageText: "body"}, "")
	req, err := adapter.BuildRequest(context.Background(), domain.Credentials{APIKey: "k", Model: "m"}, prompt)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if !strings.HasPrefix(req.URL.String(), domain.DefaultGeminiEndpoint+"/models/m:generateContent") {
		t.Fatalf("url = %s", req.URL)
	}
	raw, _ := io.ReadAll(req.Body)
	if strings.Contains(string(raw), "inlineData") || strings.Contains(string(raw), "Selected text") {
		t.Fatalf("page-only request carries extra parts: %s", raw)
	}
	if !strings.Contains(string(raw), `"text":"Page content:\nbody"`) {
		t.Fatalf("page part missing: %s", raw)
	}
}

func TestGeminiBackend_Complete(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     string
		wantCode domain.ErrorCode
		wantMsg  string
	}{
		{
			name:   "concatenates parts",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[{"text":"Hello, "},{"text":"world"}]}},{"content":{"parts":[{"text":"ignored"}]}}]}`,
			want:   "Hello, world",
		},
		{
			name:   "empty parts fall back",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[]}}]}`,
			want:   domain.FallbackAnswer,
		},
		{
			name:     "missing candidates",
			status:   http.StatusOK,
			body:     `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantCode: domain.ErrCodeMalformedResponse,
		},
		{
			name:     "invalid json",
			status:   http.StatusOK,
			body:     `not json`,
			wantCode: domain.ErrCodeMalformedResponse,
		},
		{
			name:     "error body surfaced verbatim",
			status:   http.StatusBadRequest,
			body:     `{"error":{"message":"API key not valid"}}`,
			wantCode: domain.ErrCodeNetworkOrAPI,
			wantMsg:  `400 Bad Request: {"error":{"message":"API key not valid"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			backend := NewBackend(GeminiAdapter{BaseURL: srv.URL, Generation: testGeneration}, srv.Client(), logger.Nop())
			got, err := backend.Complete(context.Background(), domain.Credentials{APIKey: "k", Model: "m"}, domain.Prompt{Question: "q"})
			if tt.wantCode != "" {
				if !domain.IsCode(err, tt.wantCode) {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
					t.Fatalf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete: %v", err)
			}
			if got != tt.want {
				t.Fatalf("answer = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackend_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	backend := NewBackend(GeminiAdapter{BaseURL: base}, nil, logger.Nop())
	_, err := backend.Complete(context.Background(), domain.Credentials{APIKey: "AIza-super-secret", Model: "m"}, domain.Prompt{})
	if !domain.IsCode(err, domain.ErrCodeNetworkOrAPI) {
		t.Fatalf("error = %v, want NETWORK_OR_API_ERROR", err)
	}
	if strings.Contains(err.Error(), "AIza-super-secret") {
		t.Fatalf("transport error leaked the key: %v", err)
	}
}
