package domain

import (
	"fmt"
	"strings"
)

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultOpenAIEndpoint = "https://api.openai.com/v1"
	DefaultWordWrap       = 100
	DefaultMarkdownStyle  = "auto"
	DefaultStoreFile      = "store.db"
)

// DefaultDisabledHosts are hosts the page sources refuse to read.
var DefaultDisabledHosts = []string{"github.dev", "*.github.dev"}

// ApplyDefaults fills zero values so downstream code never sees them.
func (c *Config) ApplyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = StoreSQLite
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStoreFile
	}
	if c.Endpoints.Gemini == "" {
		c.Endpoints.Gemini = DefaultGeminiEndpoint
	}
	if c.Endpoints.OpenAI == "" {
		c.Endpoints.OpenAI = DefaultOpenAIEndpoint
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = DefaultTemperature
	}
	if c.Generation.TopP == 0 {
		c.Generation.TopP = DefaultTopP
	}
	if c.Generation.MaxOutputTokens == 0 {
		c.Generation.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.Prompt.ResponseLanguage == "" {
		c.Prompt.ResponseLanguage = DefaultResponseLanguage
	}
	if c.Page.DisabledHosts == nil {
		c.Page.DisabledHosts = append([]string(nil), DefaultDisabledHosts...)
	}
	if c.UI.MarkdownStyle == "" {
		c.UI.MarkdownStyle = DefaultMarkdownStyle
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = DefaultWordWrap
	}
}

// Validate checks the values ApplyDefaults cannot repair.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreSQLite, StoreFile:
	default:
		return fmt.Errorf("store.backend: unsupported value %q (expected sqlite or file)", c.Store.Backend)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be within [0, 2], got %v", c.Generation.Temperature)
	}
	if c.Generation.TopP < 0 || c.Generation.TopP > 1 {
		return fmt.Errorf("generation.top_p must be within [0, 1], got %v", c.Generation.TopP)
	}
	if c.Generation.MaxOutputTokens < 0 {
		return fmt.Errorf("generation.max_output_tokens must not be negative")
	}
	for _, endpoint := range []string{c.Endpoints.Gemini, c.Endpoints.OpenAI} {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			return fmt.Errorf("endpoint %q must be an http(s) URL", endpoint)
		}
	}
	return nil
}

// EndpointFor returns the base URL of the given provider without a trailing slash.
func (c *Config) EndpointFor(p ProviderID) string {
	endpoint := c.Endpoints.Gemini
	if p == ProviderOpenAI {
		endpoint = c.Endpoints.OpenAI
	}
	return strings.TrimRight(endpoint, "/")
}
