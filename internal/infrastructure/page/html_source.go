package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// maxDocumentBytes bounds what is read from a page or file.
const maxDocumentBytes = 8 << 20

// maxRedirects matches net/http's default policy.
const maxRedirects = 10

// HTMLSource reads a page over HTTP, or from a local file, and extracts its
// text without running scripts.
type HTMLSource struct {
	Target    string
	Selection string
	UserAgent string
	Filter    *HostFilter
	Client    *http.Client
	Logger    ports.Logger
}

// Snapshot implements ports.PageSource.
func (s *HTMLSource) Snapshot(ctx context.Context) (domain.PageSnapshot, error) {
	if err := s.Filter.Check(s.Target); err != nil {
		return domain.PageSnapshot{}, err
	}
	data, contentType, err := s.fetch(ctx)
	if err != nil {
		return domain.PageSnapshot{}, err
	}

	snap := domain.PageSnapshot{URL: s.Target, Selection: strings.TrimSpace(s.Selection)}
	if isPlainText(contentType, s.Target) {
		snap.Text = strings.TrimSpace(string(data))
	} else {
		extracted, err := ExtractText(bytes.NewReader(data))
		if err != nil {
			return domain.PageSnapshot{}, fmt.Errorf("parse %s: %w", s.Target, err)
		}
		snap.Title = extracted.Title
		snap.Text = extracted.Text
	}
	if s.Logger != nil {
		s.Logger.Debug("page extracted", map[string]interface{}{
			"target": s.Target,
			"bytes":  len(data),
			"chars":  len([]rune(snap.Text)),
		})
	}
	return snap, nil
}

func (s *HTMLSource) fetch(ctx context.Context) ([]byte, string, error) {
	if !isRemote(s.Target) {
		f, err := os.Open(s.Target)
		if err != nil {
			return nil, "", fmt.Errorf("open page: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
		return data, mime.TypeByExtension(extOf(s.Target)), err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Target, nil)
	if err != nil {
		return nil, "", err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch page: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read page: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// client returns a copy of the configured client that applies the host
// filter to every redirect hop.
func (s *HTMLSource) client() *http.Client {
	base := http.DefaultClient
	if s.Client != nil {
		base = s.Client
	}
	c := *base
	next := base.CheckRedirect
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if err := s.Filter.Check(req.URL.String()); err != nil {
			return err
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return &c
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func isPlainText(contentType, target string) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "text/plain" || mediaType == "text/markdown" {
		return true
	}
	switch extOf(target) {
	case ".txt", ".md", ".markdown":
		return !isRemote(target)
	}
	return false
}

func extOf(target string) string {
	i := strings.LastIndex(target, ".")
	if i < 0 || strings.ContainsAny(target[i:], "/\\?") {
		return ""
	}
	return strings.ToLower(target[i:])
}

var _ ports.PageSource = (*HTMLSource)(nil)
