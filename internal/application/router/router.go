// Package router sends a question to the active provider: it resolves the
// provider and model from settings, opens the stored key and hands the
// prompt to the matching backend.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// ProviderSettings is the slice of the settings service the router needs.
type ProviderSettings interface {
	ActiveProvider(ctx context.Context) (domain.ProviderConfig, error)
}

// Router implements ports.Asker.
type Router struct {
	source   ProviderSettings
	codec    ports.SecretCodec
	backends map[domain.ProviderID]ports.Backend
	language string
	logger   ports.Logger
}

// New builds a Router over the given backends. language is the default
// response language written into the system prompt.
func New(settings ProviderSettings, codec ports.SecretCodec, language string, logger ports.Logger, backends ...ports.Backend) *Router {
	r := &Router{
		source:   settings,
		codec:    codec,
		backends: make(map[domain.ProviderID]ports.Backend, len(backends)),
		language: language,
		logger:   logger,
	}
	for _, b := range backends {
		r.backends[b.ID()] = b
	}
	return r
}

// Ask answers req with the active provider.
func (r *Router) Ask(ctx context.Context, req domain.AskRequest) (string, error) {
	if r.source == nil || r.codec == nil || r.logger == nil {
		return "", errors.New("router.Router dependencies not satisfied")
	}
	active, err := r.source.ActiveProvider(ctx)
	if err != nil {
		return "", fmt.Errorf("load provider settings: %w", err)
	}
	if !active.HasKey() {
		return "", domain.NewNoAPIKey(active.Provider)
	}
	backend, ok := r.backends[active.Provider]
	if !ok {
		return "", fmt.Errorf("no backend registered for provider %s", active.Provider)
	}

	apiKey, err := r.codec.Decrypt(ctx, active.Key)
	if err != nil {
		r.logger.Warn("stored key could not be decrypted", map[string]interface{}{"provider": active.Provider})
		return "", domain.NewDecryptionFailed(active.Provider, err)
	}

	prompt := domain.BuildPrompt(req, r.language)
	r.logger.Info("calling provider", map[string]interface{}{
		"provider":   active.Provider,
		"model":      active.Model,
		"scope":      req.Scope(),
		"page_chars": len([]rune(prompt.PageText)),
		"screenshot": prompt.Screenshot != nil,
	})

	answer, err := backend.Complete(ctx, domain.Credentials{APIKey: apiKey, Model: active.Model}, prompt)
	if err != nil {
		r.logger.Error("provider call failed", err, map[string]interface{}{"provider": active.Provider})
		return "", err
	}
	return answer, nil
}

var _ ports.Asker = (*Router)(nil)
