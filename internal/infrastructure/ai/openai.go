package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// OpenAIAdapter speaks the chat completions API. Screenshots are not sent.
type OpenAIAdapter struct {
	BaseURL    string
	Generation domain.GenerationSettings
}

// Provider implements ports.RequestAdapter.
func (a OpenAIAdapter) Provider() domain.ProviderID {
	return domain.ProviderOpenAI
}

// BuildRequest sends [system, user] where the user message carries the page
// context, the selection and the question as plain text.
func (a OpenAIAdapter) BuildRequest(ctx context.Context, creds domain.Credentials, prompt domain.Prompt) (*http.Request, error) {
	reqBody := map[string]interface{}{
		"model": creds.Model,
		"messages": []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(userContent(prompt)),
		},
	}
	if isReasoningModel(creds.Model) {
		reqBody["max_completion_tokens"] = a.Generation.MaxOutputTokens
	} else {
		reqBody["max_tokens"] = a.Generation.MaxOutputTokens
		reqBody["temperature"] = a.Generation.Temperature
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(valueOrDefault(a.BaseURL, domain.DefaultOpenAIEndpoint), "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	return req, nil
}

// ExtractAnswer returns the first choice's message content.
func (a OpenAIAdapter) ExtractAnswer(resp *http.Response) (string, error) {
	if !isSuccess(resp) {
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return "", domain.NewNetworkOrAPI("Invalid OpenAI API key. Please check your settings.", nil)
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", domain.NewNetworkOrAPI("OpenAI rate limit exceeded. Please try again later.", nil)
		case resp.StatusCode >= 500:
			return "", domain.NewNetworkOrAPI("OpenAI service is temporarily unavailable. Please try again later.", nil)
		default:
			return "", statusError(resp)
		}
	}
	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	var completion openai.ChatCompletion
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", domain.NewMalformedResponse(domain.ProviderOpenAI, err)
	}
	if len(completion.Choices) == 0 {
		return "", domain.NewMalformedResponse(domain.ProviderOpenAI, nil)
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return domain.FallbackAnswer, nil
	}
	return content, nil
}

func userContent(prompt domain.Prompt) string {
	var b strings.Builder
	b.WriteString(prompt.PageLabel())
	b.WriteString(prompt.PageText)
	if prompt.Selection != "" {
		b.WriteString("\n\n")
		b.WriteString(domain.SelectionLabel)
		b.WriteString(prompt.Selection)
	}
	b.WriteString("\n\n")
	b.WriteString(prompt.Question)
	return b.String()
}

// isReasoningModel reports models that reject temperature and max_tokens.
func isReasoningModel(model string) bool {
	model = strings.ToLower(model)
	return strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4")
}

var _ ports.RequestAdapter = OpenAIAdapter{}
