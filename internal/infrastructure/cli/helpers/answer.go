package helpers

import (
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/infrastructure/render"
	"github.com/doeshing/askpage-go/internal/ports"
)

// Answer output formats accepted by ask --format.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// AnswerRenderer returns the renderer for format.
func AnswerRenderer(format string, ui domain.UISettings) (ports.MarkdownRenderer, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return render.NewTerminal(ui.MarkdownStyle, ui.WordWrap), nil
	case FormatMarkdown, "md":
		return render.Plain{}, nil
	case FormatHTML:
		return render.NewHTML(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (expected text, markdown or html)", format)
	}
}

// WriteAnswer renders answer and writes it followed by a newline.
func WriteAnswer(out io.Writer, r ports.MarkdownRenderer, answer string) error {
	rendered, err := r.Render(answer)
	if err != nil {
		return fmt.Errorf("render answer: %w", err)
	}
	_, err = fmt.Fprintln(out, rendered)
	return err
}
