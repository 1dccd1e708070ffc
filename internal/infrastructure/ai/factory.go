package ai

import (
	"net/http"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// Factory builds the backends for every supported provider.
type Factory struct {
	httpClient *http.Client
	logger     ports.Logger
}

// NewFactory returns a Factory. The HTTP client has no timeout; callers
// bound a call through its context.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Backends returns one backend per provider, configured from cfg.
func (f *Factory) Backends(cfg domain.Config) []ports.Backend {
	return []ports.Backend{
		NewBackend(GeminiAdapter{BaseURL: cfg.EndpointFor(domain.ProviderGemini), Generation: cfg.Generation}, f.httpClient, f.logger),
		NewBackend(OpenAIAdapter{BaseURL: cfg.EndpointFor(domain.ProviderOpenAI), Generation: cfg.Generation}, f.httpClient, f.logger),
	}
}
