package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doeshing/askpage-go/internal/application/dialog"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/infrastructure/config"
	"github.com/doeshing/askpage-go/internal/infrastructure/page"
)

func buildTestContainer(t *testing.T) *Container {
	t.Helper()
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))
	c, err := BuildContainer(context.Background(), false)
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestBuildContainer_WiresSettingsStore(t *testing.T) {
	c := buildTestContainer(t)
	ctx := context.Background()

	if err := c.Settings.SetModel(ctx, domain.ProviderOpenAI, "o3-mini"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	s, err := c.Settings.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.OpenAIModel != "o3-mini" {
		t.Fatalf("model = %q", s.OpenAIModel)
	}
	if c.Config.Store.Backend != domain.StoreSQLite {
		t.Fatalf("backend = %q", c.Config.Store.Backend)
	}
}

func TestOpenPage_Sources(t *testing.T) {
	c := buildTestContainer(t)

	tests := []struct {
		name string
		in   PageInput
		want string
	}{
		{"selection only", PageInput{Selection: "picked"}, "page.Static"},
		{"stdin", PageInput{Target: StdinTarget, Stdin: strings.NewReader("piped")}, "page.Static"},
		{"url", PageInput{Target: "https://example.com"}, "*page.HTMLSource"},
		{"browser", PageInput{Target: "https://example.com", UseBrowser: true}, "*page.BrowserSource"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.OpenPage(tt.in)
			if err != nil {
				t.Fatalf("OpenPage: %v", err)
			}
			defer p.Close()
			var got string
			switch p.Source.(type) {
			case page.Static:
				got = "page.Static"
			case *page.HTMLSource:
				got = "*page.HTMLSource"
			case *page.BrowserSource:
				got = "*page.BrowserSource"
			}
			if got != tt.want {
				t.Fatalf("source = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOpenPage_StdinAndScreenshotFile(t *testing.T) {
	c := buildTestContainer(t)
	p, err := c.OpenPage(PageInput{
		Target:         StdinTarget,
		Selection:      "  part  ",
		ScreenshotFile: "shot.png",
		Stdin:          strings.NewReader("  whole page\n"),
	})
	if err != nil {
		t.Fatalf("OpenPage: %v", err)
	}
	snap, err := p.Source.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Text != "whole page" || snap.Selection != "part" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if _, ok := p.Screenshots.(page.FileCapturer); !ok {
		t.Fatalf("screenshots = %T", p.Screenshots)
	}
}

func TestNewDialog_EphemeralKeepsHistoryInMemory(t *testing.T) {
	c := buildTestContainer(t)
	ctx := context.Background()
	p, err := c.OpenPage(PageInput{Selection: "text"})
	if err != nil {
		t.Fatalf("OpenPage: %v", err)
	}

	ctrl := c.NewDialog(p, true)
	if err := ctrl.Toggle(ctx); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if ctrl.State() != dialog.StateOpen {
		t.Fatalf("state = %v", ctrl.State())
	}
	ctrl.SetInput("what is this?")
	if req := ctrl.Submit(ctx); req == nil {
		t.Fatal("expected a request")
	}

	raw, err := c.Store.GetRaw(ctx, domain.KeyPromptHistory)
	if err != nil {
		t.Fatalf("GetRaw: %v", err)
	}
	if raw != nil {
		t.Fatalf("ephemeral question persisted: %s", raw)
	}
}
