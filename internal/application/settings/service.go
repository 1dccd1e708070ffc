// Package settings reads and writes the user settings kept in the key-value
// store: active provider, models, sealed API keys, the screenshot flag, the
// /summary override and user-defined commands.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/askpage-go/internal/application/command"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// Service is the settings facade used by the router, the dialog and the CLI.
type Service struct {
	Store  ports.KeyValueStore
	Codec  ports.SecretCodec
	Logger ports.Logger
}

// Load returns all settings with defaults applied.
func (s *Service) Load(ctx context.Context) (domain.Settings, error) {
	if s.Store == nil {
		return domain.Settings{}, errors.New("settings.Service dependencies not satisfied")
	}
	provider, err := s.provider(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	out := domain.Settings{Provider: provider}
	if out.GeminiModel, err = s.model(ctx, domain.ProviderGemini); err != nil {
		return domain.Settings{}, err
	}
	if out.OpenAIModel, err = s.model(ctx, domain.ProviderOpenAI); err != nil {
		return domain.Settings{}, err
	}
	if _, err := s.Store.Get(ctx, domain.KeyScreenshotEnabled, &out.ScreenshotEnabled); err != nil {
		return domain.Settings{}, err
	}
	if _, err := s.Store.Get(ctx, domain.KeyCustomSummaryPrompt, &out.CustomSummaryPrompt); err != nil {
		return domain.Settings{}, err
	}
	if out.CustomCommands, err = s.Commands(ctx); err != nil {
		return domain.Settings{}, err
	}
	if out.HasGeminiKey, err = s.hasKey(ctx, domain.ProviderGemini); err != nil {
		return domain.Settings{}, err
	}
	if out.HasOpenAIKey, err = s.hasKey(ctx, domain.ProviderOpenAI); err != nil {
		return domain.Settings{}, err
	}
	return out, nil
}

// ActiveProvider returns the active provider with its model and raw stored key.
func (s *Service) ActiveProvider(ctx context.Context) (domain.ProviderConfig, error) {
	provider, err := s.provider(ctx)
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	model, err := s.model(ctx, provider)
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	key, err := s.Store.GetRaw(ctx, domain.APIKeyKey(provider))
	if err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("read %s key: %w", provider, err)
	}
	return domain.ProviderConfig{Provider: provider, Model: model, Key: key}, nil
}

// SetProvider makes p the active provider.
func (s *Service) SetProvider(ctx context.Context, p domain.ProviderID) error {
	if _, err := domain.ParseProvider(string(p)); err != nil {
		return err
	}
	return s.Store.Set(ctx, domain.KeyProvider, p)
}

// SwitchProvider flips between gemini and openai and returns the new provider.
func (s *Service) SwitchProvider(ctx context.Context) (domain.ProviderID, error) {
	current, err := s.provider(ctx)
	if err != nil {
		return "", err
	}
	next := current.Other()
	if err := s.Store.Set(ctx, domain.KeyProvider, next); err != nil {
		return "", err
	}
	s.log().Info("provider switched", map[string]interface{}{"from": current, "to": next})
	return next, nil
}

// SetModel stores the model id for p.
func (s *Service) SetModel(ctx context.Context, p domain.ProviderID, model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return domain.NewInvalidSettings("model must not be empty")
	}
	return s.Store.Set(ctx, domain.ModelKey(p), model)
}

// SetAPIKey seals key and stores the envelope for p.
func (s *Service) SetAPIKey(ctx context.Context, p domain.ProviderID, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.NewInvalidSettings("API key must not be empty")
	}
	if s.Codec == nil {
		return errors.New("settings.Service has no secret codec")
	}
	env, err := s.Codec.Encrypt(ctx, key)
	if err != nil {
		return fmt.Errorf("encrypt %s key: %w", p, err)
	}
	if err := s.Store.Set(ctx, domain.APIKeyKey(p), env); err != nil {
		return err
	}
	s.log().Info("api key stored", map[string]interface{}{"provider": p})
	return nil
}

// RemoveAPIKey deletes the stored key for p.
func (s *Service) RemoveAPIKey(ctx context.Context, p domain.ProviderID) error {
	return s.Store.Delete(ctx, domain.APIKeyKey(p))
}

// SetScreenshot stores the screenshot flag.
func (s *Service) SetScreenshot(ctx context.Context, enabled bool) error {
	return s.Store.Set(ctx, domain.KeyScreenshotEnabled, enabled)
}

// ToggleScreenshot flips the screenshot flag and returns the new value.
func (s *Service) ToggleScreenshot(ctx context.Context) (bool, error) {
	enabled, err := s.screenshot(ctx)
	if err != nil {
		return false, err
	}
	enabled = !enabled
	return enabled, s.SetScreenshot(ctx, enabled)
}

// SetSummaryPrompt overrides the /summary prompt. An empty prompt restores
// the default.
func (s *Service) SetSummaryPrompt(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" || prompt == domain.DefaultSummaryPrompt {
		return s.Store.Delete(ctx, domain.KeyCustomSummaryPrompt)
	}
	return s.Store.Set(ctx, domain.KeyCustomSummaryPrompt, prompt)
}

// Commands returns the user-defined commands in definition order.
func (s *Service) Commands(ctx context.Context) ([]domain.Command, error) {
	var cmds []domain.Command
	if _, err := s.Store.Get(ctx, domain.KeyCustomCommands, &cmds); err != nil {
		return nil, err
	}
	for i := range cmds {
		cmds[i].Kind = domain.CommandUserDefined
	}
	return cmds, nil
}

// Interpreter builds a command interpreter from the stored commands.
func (s *Service) Interpreter(ctx context.Context) (*command.Interpreter, error) {
	var summary string
	if _, err := s.Store.Get(ctx, domain.KeyCustomSummaryPrompt, &summary); err != nil {
		return nil, err
	}
	cmds, err := s.Commands(ctx)
	if err != nil {
		return nil, err
	}
	return command.NewInterpreter(summary, cmds), nil
}

// AddCommand validates and stores a new user-defined command.
func (s *Service) AddCommand(ctx context.Context, trigger, prompt string) (domain.Command, error) {
	return s.editCommands(ctx, func(c *command.Catalog) (domain.Command, error) {
		return c.Add(trigger, prompt)
	})
}

// UpdateCommand changes the command addressed by id or trigger.
func (s *Service) UpdateCommand(ctx context.Context, identifier, trigger, prompt string) (domain.Command, error) {
	return s.editCommands(ctx, func(c *command.Catalog) (domain.Command, error) {
		return c.Update(identifier, trigger, prompt)
	})
}

// DeleteCommand removes the command addressed by id or trigger.
func (s *Service) DeleteCommand(ctx context.Context, identifier string) (domain.Command, error) {
	return s.editCommands(ctx, func(c *command.Catalog) (domain.Command, error) {
		return c.Delete(identifier)
	})
}

func (s *Service) editCommands(ctx context.Context, edit func(*command.Catalog) (domain.Command, error)) (domain.Command, error) {
	cmds, err := s.Commands(ctx)
	if err != nil {
		return domain.Command{}, err
	}
	catalog := command.NewCatalog(cmds)
	cmd, err := edit(catalog)
	if err != nil {
		return domain.Command{}, err
	}
	if err := s.Store.Set(ctx, domain.KeyCustomCommands, catalog.Commands()); err != nil {
		return domain.Command{}, err
	}
	return cmd, nil
}

// preservedOnReset survive Reset.
var preservedOnReset = map[string]bool{
	domain.KeyGeminiAPIKey:  true,
	domain.KeyOpenAIAPIKey:  true,
	domain.KeyEncryptionKey: true,
}

// Reset deletes every setting except the API keys and the key material.
func (s *Service) Reset(ctx context.Context) error {
	keys, err := s.Store.Keys(ctx)
	if err != nil {
		return err
	}
	var drop []string
	for _, key := range keys {
		if !preservedOnReset[key] {
			drop = append(drop, key)
		}
	}
	if len(drop) == 0 {
		return nil
	}
	if err := s.Store.Delete(ctx, drop...); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	s.log().Info("settings reset", map[string]interface{}{"removed": len(drop)})
	return nil
}

// Export writes the shareable settings as indented JSON. API keys are never
// included.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	out := domain.ExportedSettings{}
	if _, err := s.Store.Get(ctx, domain.KeyProvider, &out.Provider); err != nil {
		return err
	}
	if _, err := s.Store.Get(ctx, domain.KeyGeminiModel, &out.GeminiModel); err != nil {
		return err
	}
	if _, err := s.Store.Get(ctx, domain.KeyOpenAIModel, &out.OpenAIModel); err != nil {
		return err
	}
	if _, err := s.Store.Get(ctx, domain.KeyCustomSummaryPrompt, &out.CustomSummaryPrompt); err != nil {
		return err
	}
	cmds, err := s.Commands(ctx)
	if err != nil {
		return err
	}
	out.CustomCommands = append([]domain.Command{}, cmds...)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Import applies an exported document. Fields that are absent are left
// alone; a present command list, even an empty one, replaces the stored
// list. The document is validated as a whole before anything is written,
// then keys are written in a fixed order. A store failure part way through
// leaves the earlier keys written.
func (s *Service) Import(ctx context.Context, r io.Reader) (domain.ExportedSettings, error) {
	var in domain.ExportedSettings
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		return domain.ExportedSettings{}, domain.NewInvalidSettings(fmt.Sprintf("invalid settings file: %v", err))
	}

	if in.Provider != "" {
		p, err := domain.ParseProvider(string(in.Provider))
		if err != nil {
			return domain.ExportedSettings{}, err
		}
		in.Provider = p
	}
	var commands []domain.Command
	if in.CustomCommands != nil {
		catalog := command.NewCatalog(nil)
		for _, cmd := range in.CustomCommands {
			if _, err := catalog.Add(cmd.Trigger, cmd.Prompt); err != nil {
				return domain.ExportedSettings{}, err
			}
		}
		commands = append([]domain.Command{}, catalog.Commands()...)
	}

	type write struct {
		key   string
		value any
	}
	var writes []write
	if in.Provider != "" {
		writes = append(writes, write{domain.KeyProvider, in.Provider})
	}
	if m := strings.TrimSpace(in.GeminiModel); m != "" {
		writes = append(writes, write{domain.KeyGeminiModel, m})
	}
	if m := strings.TrimSpace(in.OpenAIModel); m != "" {
		writes = append(writes, write{domain.KeyOpenAIModel, m})
	}
	if p := strings.TrimSpace(in.CustomSummaryPrompt); p != "" {
		writes = append(writes, write{domain.KeyCustomSummaryPrompt, p})
	}
	if commands != nil {
		writes = append(writes, write{domain.KeyCustomCommands, commands})
	}
	for _, w := range writes {
		if err := s.Store.Set(ctx, w.key, w.value); err != nil {
			return domain.ExportedSettings{}, fmt.Errorf("import %s: %w", w.key, err)
		}
	}
	in.CustomCommands = commands
	return in, nil
}

func (s *Service) provider(ctx context.Context) (domain.ProviderID, error) {
	var raw string
	found, err := s.Store.Get(ctx, domain.KeyProvider, &raw)
	if err != nil {
		return "", err
	}
	if !found || raw == "" {
		return domain.DefaultProvider, nil
	}
	p, err := domain.ParseProvider(raw)
	if err != nil {
		s.log().Warn("unknown stored provider, using default", map[string]interface{}{"value": raw})
		return domain.DefaultProvider, nil
	}
	return p, nil
}

func (s *Service) model(ctx context.Context, p domain.ProviderID) (string, error) {
	var model string
	if _, err := s.Store.Get(ctx, domain.ModelKey(p), &model); err != nil {
		return "", err
	}
	if strings.TrimSpace(model) == "" {
		return p.DefaultModel(), nil
	}
	return model, nil
}

func (s *Service) screenshot(ctx context.Context) (bool, error) {
	var enabled bool
	_, err := s.Store.Get(ctx, domain.KeyScreenshotEnabled, &enabled)
	return enabled, err
}

func (s *Service) hasKey(ctx context.Context, p domain.ProviderID) (bool, error) {
	raw, err := s.Store.GetRaw(ctx, domain.APIKeyKey(p))
	return raw != nil, err
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

func (s *Service) log() ports.Logger {
	if s.Logger == nil {
		return nopLogger{}
	}
	return s.Logger
}
