package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiAdapter speaks the generateContent API.
type GeminiAdapter struct {
	BaseURL    string
	Generation domain.GenerationSettings
}

// Provider implements ports.RequestAdapter.
func (a GeminiAdapter) Provider() domain.ProviderID {
	return domain.ProviderGemini
}

// BuildRequest sends a single user turn: system text, page context,
// optional selection, optional screenshot, then the question.
func (a GeminiAdapter) BuildRequest(ctx context.Context, creds domain.Credentials, prompt domain.Prompt) (*http.Request, error) {
	parts := []geminiPart{
		{Text: prompt.System},
		{Text: prompt.PageLabel() + prompt.PageText},
	}
	if prompt.Selection != "" {
		parts = append(parts, geminiPart{Text: domain.SelectionLabel + prompt.Selection})
	}
	if shot := prompt.Screenshot; shot != nil && len(shot.Data) > 0 {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: shot.MimeType,
			Data:     base64.StdEncoding.EncodeToString(shot.Data),
		}})
	}
	parts = append(parts, geminiPart{Text: prompt.Question})

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     a.Generation.Temperature,
			TopP:            a.Generation.TopP,
			MaxOutputTokens: a.Generation.MaxOutputTokens,
		},
	})
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(valueOrDefault(a.BaseURL, domain.DefaultGeminiEndpoint), "/")
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, url.PathEscape(creds.Model), url.QueryEscape(creds.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// ExtractAnswer joins every text part of the first candidate.
func (a GeminiAdapter) ExtractAnswer(resp *http.Response) (string, error) {
	if !isSuccess(resp) {
		return "", statusError(resp)
	}
	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	var decoded geminiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", domain.NewMalformedResponse(domain.ProviderGemini, err)
	}
	if len(decoded.Candidates) == 0 || decoded.Candidates[0].Content == nil {
		return "", domain.NewMalformedResponse(domain.ProviderGemini, nil)
	}
	var answer strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		answer.WriteString(part.Text)
	}
	if answer.Len() == 0 {
		return domain.FallbackAnswer, nil
	}
	return answer.String(), nil
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

var _ ports.RequestAdapter = GeminiAdapter{}
