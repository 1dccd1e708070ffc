package page

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

const (
	browserViewportWidth  = 1280
	browserViewportHeight = 800
)

// BrowserSource renders the page in headless Chromium so script-built
// content is visible, and captures screenshots of the same page.
type BrowserSource struct {
	Target    string
	Selection string
	UserAgent string
	Filter    *HostFilter
	Logger    ports.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// Snapshot implements ports.PageSource.
func (s *BrowserSource) Snapshot(ctx context.Context) (domain.PageSnapshot, error) {
	if err := s.Filter.Check(s.Target); err != nil {
		return domain.PageSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(ctx); err != nil {
		return domain.PageSnapshot{}, err
	}

	var container playwright.ElementHandle
	for _, selector := range []string{"main", "article", "body"} {
		el, err := s.page.QuerySelector(selector)
		if err != nil {
			return domain.PageSnapshot{}, fmt.Errorf("selector query failed: %w", err)
		}
		if el != nil {
			container = el
			break
		}
	}
	if container == nil {
		return domain.PageSnapshot{}, fmt.Errorf("no body element found")
	}
	text, err := container.InnerText()
	if err != nil {
		return domain.PageSnapshot{}, fmt.Errorf("text extraction failed: %w", err)
	}
	title, _ := s.page.Title()
	return domain.PageSnapshot{
		URL:       s.page.URL(),
		Title:     title,
		Text:      strings.TrimSpace(text),
		Selection: strings.TrimSpace(s.Selection),
	}, nil
}

// Capture implements ports.ScreenshotCapturer with a PNG of the viewport.
func (s *BrowserSource) Capture(ctx context.Context) (domain.Screenshot, error) {
	if err := s.Filter.Check(s.Target); err != nil {
		return domain.Screenshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(ctx); err != nil {
		return domain.Screenshot{}, err
	}
	png := playwright.ScreenshotType("png")
	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{Type: &png})
	if err != nil {
		return domain.Screenshot{}, fmt.Errorf("screenshot failed: %w", err)
	}
	return domain.Screenshot{MimeType: "image/png", Data: data}, nil
}

// Close releases the browser and the driver.
func (s *BrowserSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.pw != nil {
		err := s.pw.Stop()
		s.pw = nil
		return err
	}
	return nil
}

// open starts the driver and loads the target once; later calls reuse the page.
func (s *BrowserSource) open(ctx context.Context) error {
	if s.page != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Output is discarded so the driver never writes into the dialog.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	headless := true
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: &headless})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	pageOpts := playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: browserViewportWidth, Height: browserViewportHeight},
	}
	if s.UserAgent != "" {
		pageOpts.UserAgent = &s.UserAgent
	}
	page, err := browser.NewPage(pageOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("failed to create page: %w", err)
	}

	target := s.Target
	if !isRemote(target) && !strings.HasPrefix(target, "file://") {
		target = "file://" + absPath(target)
	}
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	if _, err := page.Goto(target, playwright.PageGotoOptions{WaitUntil: &waitUntil}); err != nil {
		page.Close()
		browser.Close()
		pw.Stop()
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := s.Filter.Check(page.URL()); err != nil {
		page.Close()
		browser.Close()
		pw.Stop()
		return err
	}
	if s.Logger != nil {
		s.Logger.Debug("browser page loaded", map[string]interface{}{"url": page.URL()})
	}

	s.pw, s.browser, s.page = pw, browser, page
	return nil
}

var (
	_ ports.PageSource         = (*BrowserSource)(nil)
	_ ports.ScreenshotCapturer = (*BrowserSource)(nil)
)
