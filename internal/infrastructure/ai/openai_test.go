package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/pkg/logger"
)

func decodeOpenAIBody(t *testing.T, req *http.Request) map[string]json.RawMessage {
	t.Helper()
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestOpenAIAdapter_ReasoningModelBody(t *testing.T) {
	adapter := OpenAIAdapter{Generation: testGeneration}
	req, err := adapter.BuildRequest(context.Background(), domain.Credentials{APIKey: "sk-1", Model: "o3-mini"}, domain.Prompt{System: "sys", Question: "q"})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	body := decodeOpenAIBody(t, req)

	if _, ok := body["temperature"]; ok {
		t.Fatalf("o3-mini body must not carry temperature")
	}
	if _, ok := body["max_tokens"]; ok {
		t.Fatalf("o3-mini body must not carry max_tokens")
	}
	if string(body["max_completion_tokens"]) != "2048" {
		t.Fatalf("max_completion_tokens = %s", body["max_completion_tokens"])
	}
	if req.URL.String() != domain.DefaultOpenAIEndpoint+"/chat/completions" {
		t.Fatalf("url = %s", req.URL)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer sk-1" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestOpenAIAdapter_StandardModelBody(t *testing.T) {
	adapter := OpenAIAdapter{BaseURL: "https://proxy.test/v1/", Generation: testGeneration}
	prompt := domain.BuildPrompt(domain.AskRequest{Question: "why?", PageText: "page", Selection: "sel"}, "en")
	req, err := adapter.BuildRequest(context.Background(), domain.Credentials{APIKey: "sk", Model: "gpt-4o-mini"}, prompt)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.URL.String() != "https://proxy.test/v1/chat/completions" {
		t.Fatalf("url = %s", req.URL)
	}
	body := decodeOpenAIBody(t, req)
	if string(body["temperature"]) != "0.7" || string(body["max_tokens"]) != "2048" {
		t.Fatalf("temperature=%s max_tokens=%s", body["temperature"], body["max_tokens"])
	}
	if _, ok := body["max_completion_tokens"]; ok {
		t.Fatalf("gpt-4o-mini must not carry max_completion_tokens")
	}

	var messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body["messages"], &messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 2 || messages[0].Role != "system" || messages[1].Role != "user" {
		t.Fatalf("messages = %+v", messages)
	}
	wantUser := "Full page content for context:\npage\n\nSelected text (main focus):\nsel\n\nwhy?"
	if messages[1].Content != wantUser {
		t.Fatalf("user content = %q, want %q", messages[1].Content, wantUser)
	}
	if strings.Contains(string(body["messages"]), "image") {
		t.Fatalf("openai request must not carry images")
	}
}

func TestOpenAIBackend_Complete(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     string
		wantCode domain.ErrorCode
		wantMsg  string
	}{
		{name: "answer", status: 200, body: `{"choices":[{"message":{"role":"assistant","content":" Hi there \n"}}]}`, want: "Hi there"},
		{name: "no choices", status: 200, body: `{"choices":[]}`, wantCode: domain.ErrCodeMalformedResponse},
		{name: "unauthorized", status: 401, body: `{"error":"x"}`, wantCode: domain.ErrCodeNetworkOrAPI, wantMsg: "Invalid OpenAI API key"},
		{name: "rate limited", status: 429, body: `{}`, wantCode: domain.ErrCodeNetworkOrAPI, wantMsg: "rate limit"},
		{name: "server error", status: 503, body: `{}`, wantCode: domain.ErrCodeNetworkOrAPI, wantMsg: "temporarily unavailable"},
		{name: "other status verbatim", status: 404, body: `model not found`, wantCode: domain.ErrCodeNetworkOrAPI, wantMsg: "404 Not Found: model not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/completions" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			backend := NewBackend(OpenAIAdapter{BaseURL: srv.URL, Generation: testGeneration}, srv.Client(), logger.Nop())
			got, err := backend.Complete(context.Background(), domain.Credentials{APIKey: "sk", Model: "gpt-4o-mini"}, domain.Prompt{Question: "q"})
			if tt.wantCode != "" {
				if !domain.IsCode(err, tt.wantCode) {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				if !strings.Contains(err.Error(), tt.wantMsg) {
					t.Fatalf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("Complete = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestFactory_Backends(t *testing.T) {
	var cfg domain.Config
	cfg.ApplyDefaults()
	backends := NewFactory(logger.Nop()).Backends(cfg)
	if len(backends) != 2 || backends[0].ID() != domain.ProviderGemini || backends[1].ID() != domain.ProviderOpenAI {
		t.Fatalf("unexpected backends %v", backends)
	}
}
