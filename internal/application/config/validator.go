package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/doeshing/askpage-go/internal/domain"
)

// MarkdownStyles are the glamour styles accepted in ui.markdown_style.
var MarkdownStyles = []string{"auto", "dark", "light", "notty", "ascii", "pink", "dracula", "tokyo-night"}

const minWordWrap = 20

// Validate ensures config structure is consistent. Zero values are filled
// with defaults before checking.
func Validate(cfg domain.Config) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := validatePage(cfg.Page); err != nil {
		return err
	}
	if err := validatePrompt(cfg.Prompt); err != nil {
		return err
	}
	return validateUI(cfg.UI)
}

func validatePage(page domain.PageSettings) error {
	for _, pattern := range page.DisabledHosts {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("page.disabled_hosts must not contain empty patterns")
		}
		if _, err := glob.Compile(strings.ToLower(pattern)); err != nil {
			return fmt.Errorf("page.disabled_hosts: invalid pattern %q: %w", pattern, err)
		}
	}
	if strings.ContainsAny(page.UserAgent, "\r\n") {
		return fmt.Errorf("page.user_agent must be a single line")
	}
	return nil
}

func validatePrompt(prompt domain.PromptSettings) error {
	if strings.ContainsAny(prompt.ResponseLanguage, "\r\n") {
		return fmt.Errorf("prompt.response_language must be a single line")
	}
	return nil
}

func validateUI(ui domain.UISettings) error {
	known := false
	for _, style := range MarkdownStyles {
		if ui.MarkdownStyle == style {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("ui.markdown_style must be one of %s, got %s", strings.Join(MarkdownStyles, "|"), ui.MarkdownStyle)
	}
	if ui.WordWrap < minWordWrap {
		return fmt.Errorf("ui.word_wrap must be >= %d", minWordWrap)
	}
	return nil
}
