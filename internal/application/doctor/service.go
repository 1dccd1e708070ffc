package doctor

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	configapp "github.com/doeshing/askpage-go/internal/application/config"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// Settings is the part of the settings service the doctor reads.
type Settings interface {
	Load(ctx context.Context) (domain.Settings, error)
	ActiveProvider(ctx context.Context) (domain.ProviderConfig, error)
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Store          ports.KeyValueStore
	Settings       Settings
	Codec          ports.SecretCodec
}

// Run executes checks and returns a report. The decrypted key is only used
// to prove the key material still opens it and is never reported.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := configapp.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("format %s, %s store", cfg.ConfigFormatVersion, cfg.Store.Backend)))
	}

	if s.Store == nil || s.Settings == nil {
		checks = append(checks, fail("Key-value store", "store not initialized"))
		return domain.HealthReport{Checks: checks}, nil
	}
	keys, err := s.Store.Keys(ctx)
	if err != nil {
		checks = append(checks, fail("Key-value store", err.Error()))
		return domain.HealthReport{Checks: checks}, nil
	}
	checks = append(checks, ok("Key-value store", fmt.Sprintf("%s entries", humanize.Comma(int64(len(keys))))))

	settings, err := s.Settings.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Settings", err.Error()))
		return domain.HealthReport{Checks: checks}, nil
	}
	checks = append(checks, ok("Active provider", fmt.Sprintf("%s (%s)", settings.Provider.DisplayName(), settings.ModelFor(settings.Provider))))
	checks = append(checks, s.keyCheck(ctx, settings))

	for _, p := range domain.Providers {
		if p == settings.Provider {
			continue
		}
		if settings.HasKeyFor(p) {
			checks = append(checks, ok(p.DisplayName()+" API key", "stored"))
		} else {
			checks = append(checks, warn(p.DisplayName()+" API key", "not set"))
		}
	}

	if len(cfg.Page.DisabledHosts) == 0 {
		checks = append(checks, warn("Disabled hosts", "none configured"))
	} else {
		checks = append(checks, ok("Disabled hosts", fmt.Sprintf("%d patterns", len(cfg.Page.DisabledHosts))))
	}

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) keyCheck(ctx context.Context, settings domain.Settings) domain.HealthCheck {
	name := settings.Provider.DisplayName() + " API key"
	active, err := s.Settings.ActiveProvider(ctx)
	if err != nil {
		return fail(name, err.Error())
	}
	if !active.HasKey() {
		return fail(name, fmt.Sprintf("not set; run `askpage config key %s`", active.Provider))
	}
	if s.Codec == nil {
		return warn(name, "stored, secret codec unavailable")
	}
	if _, err := s.Codec.Decrypt(ctx, active.Key); err != nil {
		return fail(name, domain.NewDecryptionFailed(active.Provider, err).Message)
	}
	return ok(name, "stored and decryptable")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
