// Package ai implements the LLM backends. Each provider is a RequestAdapter
// that knows its wire format; httpBackend does the round trip.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// maxErrorBody caps how much of an error response is surfaced.
const maxErrorBody = 64 << 10

type httpBackend struct {
	adapter    ports.RequestAdapter
	httpClient *http.Client
	logger     ports.Logger
}

// NewBackend composes adapter with an HTTP client into a ports.Backend.
func NewBackend(adapter ports.RequestAdapter, client *http.Client, logger ports.Logger) ports.Backend {
	if client == nil {
		client = &http.Client{}
	}
	return &httpBackend{adapter: adapter, httpClient: client, logger: logger}
}

func (b *httpBackend) ID() domain.ProviderID {
	return b.adapter.Provider()
}

func (b *httpBackend) Complete(ctx context.Context, creds domain.Credentials, prompt domain.Prompt) (string, error) {
	httpReq, err := b.adapter.BuildRequest(ctx, creds, prompt)
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", b.ID(), err)
	}

	b.logger.Debug("sending request", map[string]interface{}{
		"provider": b.ID(),
		"model":    creds.Model,
		"host":     httpReq.URL.Host,
	})

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", domain.NewNetworkOrAPI(fmt.Sprintf("%s request cancelled: %v", b.ID().DisplayName(), ctxErr), ctxErr)
		}
		return "", domain.NewNetworkOrAPI(fmt.Sprintf("%s request failed: %s", b.ID().DisplayName(), redactURLError(err)), err)
	}
	defer resp.Body.Close()

	b.logger.Debug("received response", map[string]interface{}{
		"provider": b.ID(),
		"status":   resp.StatusCode,
	})
	return b.adapter.ExtractAnswer(resp)
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// statusError renders a non-2xx response as "<status>: <body>".
func statusError(resp *http.Response) *domain.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return domain.NewNetworkOrAPI(fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body))), nil)
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkOrAPI(fmt.Sprintf("read response: %v", err), err)
	}
	return body, nil
}

// redactURLError drops the request URL from transport errors; the Gemini URL
// carries the API key as a query parameter.
func redactURLError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}
