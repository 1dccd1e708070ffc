// Package render turns model answers, which are Markdown, into terminal
// output or sanitized HTML.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// Terminal renders Markdown with glamour. Renderers are cached per width.
type Terminal struct {
	style    string
	wordWrap int

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewTerminal builds a terminal renderer. style is a glamour standard style
// name or "auto".
func NewTerminal(style string, wordWrap int) *Terminal {
	if style == "" {
		style = domain.DefaultMarkdownStyle
	}
	if wordWrap <= 0 {
		wordWrap = domain.DefaultWordWrap
	}
	return &Terminal{style: style, wordWrap: wordWrap, renderers: map[int]*glamour.TermRenderer{}}
}

// Render implements ports.MarkdownRenderer at the configured width.
func (t *Terminal) Render(md string) (string, error) {
	return t.RenderWidth(md, t.wordWrap)
}

// RenderWidth renders md wrapped at width columns.
func (t *Terminal) RenderWidth(md string, width int) (string, error) {
	if width <= 0 {
		width = t.wordWrap
	}
	r, err := t.renderer(width)
	if err != nil {
		return md, err
	}
	out, err := r.Render(md)
	if err != nil {
		return md, fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

func (t *Terminal) renderer(width int) (*glamour.TermRenderer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.renderers[width]; ok {
		return r, nil
	}
	styleOpt := glamour.WithStandardStyle(t.style)
	if t.style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	t.renderers[width] = r
	return r, nil
}

// HTML renders Markdown to HTML and strips anything a model could inject.
type HTML struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewHTML returns an HTML renderer with GitHub-flavoured extensions.
func NewHTML() *HTML {
	return &HTML{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render implements ports.MarkdownRenderer.
func (h *HTML) Render(md string) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return string(h.policy.SanitizeBytes(buf.Bytes())), nil
}

// Plain passes Markdown through untouched.
type Plain struct{}

func (Plain) Render(md string) (string, error) { return md, nil }

var (
	_ ports.MarkdownRenderer = (*Terminal)(nil)
	_ ports.MarkdownRenderer = (*HTML)(nil)
	_ ports.MarkdownRenderer = Plain{}
)
