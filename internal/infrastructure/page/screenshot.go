package page

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// FileCapturer serves a pre-captured image file as the page screenshot.
type FileCapturer struct {
	Path string
}

// Capture implements ports.ScreenshotCapturer.
func (c FileCapturer) Capture(context.Context) (domain.Screenshot, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return domain.Screenshot{}, fmt.Errorf("read screenshot: %w", err)
	}
	mimeType := http.DetectContentType(data)
	switch mimeType {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return domain.Screenshot{}, fmt.Errorf("screenshot %s is %s, expected png, jpeg or webp", filepath.Base(c.Path), mimeType)
	}
	return domain.Screenshot{MimeType: mimeType, Data: data}, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(path)
}

var _ ports.ScreenshotCapturer = FileCapturer{}
