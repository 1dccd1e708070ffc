package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/doeshing/askpage-go/internal/application/dialog"
	"github.com/doeshing/askpage-go/internal/application/doctor"
	"github.com/doeshing/askpage-go/internal/application/router"
	"github.com/doeshing/askpage-go/internal/application/settings"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/infrastructure/ai"
	"github.com/doeshing/askpage-go/internal/infrastructure/config"
	"github.com/doeshing/askpage-go/internal/infrastructure/kvstore"
	"github.com/doeshing/askpage-go/internal/infrastructure/page"
	"github.com/doeshing/askpage-go/internal/infrastructure/secret"
	"github.com/doeshing/askpage-go/internal/pkg/logger"
	"github.com/doeshing/askpage-go/internal/ports"
)

// StdinTarget is the page target that reads the page text from stdin.
const StdinTarget = "-"

// Container wires up application services with infrastructure adapters.
type Container struct {
	ConfigLoader   *config.FileLoader
	ConfigProvider ports.ConfigProvider
	Config         domain.Config
	Logger         *logger.StdLogger
	Store          ports.KeyValueStore
	Codec          *secret.Codec
	Settings       *settings.Service
	Router         *router.Router
	DoctorService  *doctor.Service
	Clipboard      ports.Clipboard
	Prompter       ports.ConfirmationPrompter

	httpClient *http.Client
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)
	store, err := kvstore.Open(cfg.Store, cfgLoader.Dir())
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	codec := secret.NewCodec(store)

	settingsService := &settings.Service{
		Store:  store,
		Codec:  codec,
		Logger: log,
	}

	askRouter := router.New(settingsService, codec, cfg.Prompt.ResponseLanguage, log, ai.NewFactory(log).Backends(cfg)...)

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Store:          store,
		Settings:       settingsService,
		Codec:          codec,
	}

	log.Debug("container built", map[string]interface{}{
		"config":  cfgLoader.Path(),
		"store":   cfg.Store.Backend,
		"browser": cfg.Page.UseBrowser,
	})

	return &Container{
		ConfigLoader:   cfgLoader,
		ConfigProvider: cfgLoader,
		Config:         cfg,
		Logger:         log,
		Store:          store,
		Codec:          codec,
		Settings:       settingsService,
		Router:         askRouter,
		DoctorService:  doctorService,
		httpClient:     &http.Client{},
	}, nil
}

// Close releases the settings store.
func (c *Container) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// PageInput describes the page a question is asked about.
type PageInput struct {
	// Target is a URL, a local file, StdinTarget, or empty for a
	// selection-only session.
	Target         string
	Selection      string
	ScreenshotFile string
	UseBrowser     bool
	Stdin          io.Reader
}

// PageSession is an opened page plus its optional screenshot source.
type PageSession struct {
	Source      ports.PageSource
	Screenshots ports.ScreenshotCapturer
	closers     []io.Closer
}

// Close shuts down any browser the session started.
func (p *PageSession) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenPage picks a page source for in. Nothing is fetched until the
// source's Snapshot is called.
func (c *Container) OpenPage(in PageInput) (*PageSession, error) {
	filter, err := page.NewHostFilter(c.Config.Page.DisabledHosts)
	if err != nil {
		return nil, err
	}
	session := &PageSession{}
	target := strings.TrimSpace(in.Target)

	switch {
	case target == "":
		session.Source = page.Static{Page: domain.PageSnapshot{Selection: strings.TrimSpace(in.Selection)}}
	case target == StdinTarget:
		if in.Stdin == nil {
			return nil, errors.New("no stdin to read the page from")
		}
		data, err := io.ReadAll(in.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		session.Source = page.Static{Page: domain.PageSnapshot{
			URL:       "stdin",
			Text:      strings.TrimSpace(string(data)),
			Selection: strings.TrimSpace(in.Selection),
		}}
	case in.UseBrowser || c.Config.Page.UseBrowser:
		browser := &page.BrowserSource{
			Target:    target,
			Selection: in.Selection,
			UserAgent: c.Config.Page.UserAgent,
			Filter:    filter,
			Logger:    c.Logger,
		}
		session.Source = browser
		session.Screenshots = browser
		session.closers = append(session.closers, browser)
	default:
		session.Source = &page.HTMLSource{
			Target:    target,
			Selection: in.Selection,
			UserAgent: c.Config.Page.UserAgent,
			Filter:    filter,
			Client:    c.httpClient,
			Logger:    c.Logger,
		}
	}

	if in.ScreenshotFile != "" {
		session.Screenshots = page.FileCapturer{Path: in.ScreenshotFile}
	}
	return session, nil
}

// NewDialog returns a closed dialog over p. An ephemeral dialog keeps its
// prompt history in memory only.
func (c *Container) NewDialog(p *PageSession, ephemeral bool) *dialog.Controller {
	var historyStore ports.KeyValueStore = c.Store
	if ephemeral {
		historyStore = kvstore.NewMemoryStore()
	}
	opts := dialog.Options{
		Settings: c.Settings,
		Store:    historyStore,
		Asker:    c.Router,
		Logger:   c.Logger,
	}
	if p != nil {
		opts.Page = p.Source
		opts.Screenshots = p.Screenshots
	}
	return dialog.New(opts)
}
