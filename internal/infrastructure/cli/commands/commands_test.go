package commands

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/doeshing/askpage-go/internal/app"
	"github.com/doeshing/askpage-go/internal/application/history"
	"github.com/doeshing/askpage-go/internal/domain"
	configinfra "github.com/doeshing/askpage-go/internal/infrastructure/config"
)

func newTestContainer(t *testing.T, geminiURL string) *app.Container {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(configinfra.EnvConfigPath, path)
	if geminiURL != "" {
		cfg := configinfra.DefaultConfig()
		cfg.Endpoints.Gemini = geminiURL
		if err := configinfra.NewFileLoader(path).Save(cfg); err != nil {
			t.Fatalf("save config: %v", err)
		}
	}
	c, err := app.BuildContainer(context.Background(), false)
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func geminiServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "piped page") {
			t.Errorf("request body misses the page text: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":`+answer+`}]}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAsk_PrintsAnswerAndRecordsHistory(t *testing.T) {
	srv := geminiServer(t, `"**Hi** there"`)
	c := newTestContainer(t, srv.URL)
	ctx := context.Background()
	if err := c.Settings.SetAPIKey(ctx, domain.ProviderGemini, "test-key"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}

	out, err := run(t, NewAskCommand(c), "piped page", "-u", "-", "--format", "markdown", "what", "is", "this?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if out != "**Hi** there\n" {
		t.Fatalf("output = %q", out)
	}

	h, err := history.Load(ctx, c.Store)
	if err != nil {
		t.Fatalf("history.Load: %v", err)
	}
	if diff := cmp.Diff([]string{"what is this?"}, h.All()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestAsk_EphemeralSkipsHistory(t *testing.T) {
	srv := geminiServer(t, `"ok"`)
	c := newTestContainer(t, srv.URL)
	ctx := context.Background()
	if err := c.Settings.SetAPIKey(ctx, domain.ProviderGemini, "test-key"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}

	if _, err := run(t, NewAskCommand(c), "piped page", "-u", "-", "--ephemeral", "-f", "markdown", "hello"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	h, err := history.Load(ctx, c.Store)
	if err != nil {
		t.Fatalf("history.Load: %v", err)
	}
	if h.Len() != 0 {
		t.Fatalf("history = %v, want empty", h.All())
	}
}

func TestAsk_NoKeyFails(t *testing.T) {
	c := newTestContainer(t, "")
	_, err := run(t, NewAskCommand(c), "", "-s", "some text", "explain")
	if !domain.IsCode(err, domain.ErrCodeNoAPIKey) {
		t.Fatalf("err = %v, want NO_API_KEY", err)
	}
}

func TestAsk_LocalCommands(t *testing.T) {
	c := newTestContainer(t, "")
	ctx := context.Background()
	h, err := history.Load(ctx, c.Store)
	if err != nil {
		t.Fatalf("history.Load: %v", err)
	}
	if err := h.Append(ctx, "old question"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	out, err := run(t, NewAskCommand(c), "", "/clear")
	if err != nil {
		t.Fatalf("ask /clear: %v", err)
	}
	if strings.TrimSpace(out) != "Prompt history cleared." {
		t.Fatalf("output = %q", out)
	}

	_, err = run(t, NewAskCommand(c), "", "/nosuchcommand")
	if err == nil || !strings.Contains(err.Error(), "/nosuchcommand") {
		t.Fatalf("err = %v, want unknown command", err)
	}
}

func TestAsk_RejectsUnknownFormat(t *testing.T) {
	c := newTestContainer(t, "")
	if _, err := run(t, NewAskCommand(c), "", "--format", "pdf", "hi"); err == nil {
		t.Fatal("expected an error for --format pdf")
	}
}

func TestConfigCommand_ProviderModelScreenshot(t *testing.T) {
	c := newTestContainer(t, "")
	ctx := context.Background()

	if _, err := run(t, NewConfigCommand(c), "", "provider", "OpenAI"); err != nil {
		t.Fatalf("config provider: %v", err)
	}
	if _, err := run(t, NewConfigCommand(c), "", "model", "openai", "o3-mini"); err != nil {
		t.Fatalf("config model: %v", err)
	}
	if _, err := run(t, NewConfigCommand(c), "", "screenshot", "on"); err != nil {
		t.Fatalf("config screenshot: %v", err)
	}
	s, err := c.Settings.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Provider != domain.ProviderOpenAI || s.OpenAIModel != "o3-mini" || !s.ScreenshotEnabled {
		t.Fatalf("settings = %+v", s)
	}

	if _, err := run(t, NewConfigCommand(c), "", "provider", "claude"); !domain.IsCode(err, domain.ErrCodeInvalidSettings) {
		t.Fatalf("err = %v, want INVALID_SETTINGS", err)
	}
}

func TestConfigCommand_KeyFromStdinNeverPrinted(t *testing.T) {
	c := newTestContainer(t, "")

	out, err := run(t, NewConfigCommand(c), "sk-secret-value\n", "key", "openai")
	if err != nil {
		t.Fatalf("config key: %v", err)
	}
	if strings.Contains(out, "sk-secret-value") {
		t.Fatalf("key echoed: %q", out)
	}
	s, err := c.Settings.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.HasOpenAIKey {
		t.Fatal("key not stored")
	}

	show, err := run(t, NewConfigCommand(c), "", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(show, "sk-secret-value") || !strings.Contains(show, "key stored") {
		t.Fatalf("show = %q", show)
	}
}

func TestConfigCommand_SetGetDiff(t *testing.T) {
	c := newTestContainer(t, "")

	out, err := run(t, NewConfigCommand(c), "", "diff")
	if err != nil {
		t.Fatalf("config diff: %v", err)
	}
	if strings.TrimSpace(out) != MsgNoDifferencesFromDefault {
		t.Fatalf("diff = %q", out)
	}

	if _, err := run(t, NewConfigCommand(c), "", "set", "ui.word_wrap", "80"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err = run(t, NewConfigCommand(c), "", "get", "ui.word_wrap")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if strings.TrimSpace(out) != "80" {
		t.Fatalf("get = %q", out)
	}

	if _, err := run(t, NewConfigCommand(c), "", "set", "ui.word_wrap", "5"); err == nil {
		t.Fatal("expected validation error for word_wrap 5")
	}
	if _, err := run(t, NewConfigCommand(c), "", "set", "ui.no_such_key", "1"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestCommandsCommand_AddEditDeleteList(t *testing.T) {
	c := newTestContainer(t, "")

	if _, err := run(t, NewCommandsCommand(c), "", "add", "/translate", "Translate", "to", "English"); err != nil {
		t.Fatalf("commands add: %v", err)
	}
	if _, err := run(t, NewCommandsCommand(c), "", "add", "/summary", "x"); !domain.IsCode(err, domain.ErrCodeCommandConflict) {
		t.Fatalf("err = %v, want COMMAND_CONFLICT", err)
	}
	if _, err := run(t, NewCommandsCommand(c), "", "edit", "/translate", "--trigger", "/tr"); err != nil {
		t.Fatalf("commands edit: %v", err)
	}

	out, err := run(t, NewCommandsCommand(c), "", "list")
	if err != nil {
		t.Fatalf("commands list: %v", err)
	}
	for _, want := range []string{"/clear", "/summary", "/screenshot", "/tr", "Translate to English"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list missing %s:\n%s", want, out)
		}
	}

	if _, err := run(t, NewCommandsCommand(c), "", "delete", "/tr"); err != nil {
		t.Fatalf("commands delete: %v", err)
	}
	out, err = run(t, NewCommandsCommand(c), "", "list")
	if err != nil {
		t.Fatalf("commands list: %v", err)
	}
	if !strings.Contains(out, MsgNoCustomCommands) {
		t.Fatalf("list after delete:\n%s", out)
	}
}

func TestWriteCommandTable_MarksEditable(t *testing.T) {
	cmds := append(domain.BuiltinCommands(""), domain.Command{
		ID:      "id-1",
		Trigger: "/tr",
		Prompt:  "Translate",
		Kind:    domain.CommandUserDefined,
	})
	var buf bytes.Buffer
	if err := writeCommandTable(&buf, cmds); err != nil {
		t.Fatalf("writeCommandTable: %v", err)
	}

	editable := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			editable[fields[0]] = fields[3]
		}
	}
	want := map[string]string{"/clear": "no", "/summary": "yes", "/screenshot": "no", "/tr": "yes"}
	if diff := cmp.Diff(want, editable); diff != "" {
		t.Fatalf("editable column (-want +got):\n%s", diff)
	}
}

func TestCommandsCommand_Summary(t *testing.T) {
	c := newTestContainer(t, "")

	out, err := run(t, NewCommandsCommand(c), "", "summary", "Summarize", "in", "English")
	if err != nil {
		t.Fatalf("commands summary: %v", err)
	}
	if strings.TrimSpace(out) != "Summarize in English" {
		t.Fatalf("summary = %q", out)
	}
	out, err = run(t, NewCommandsCommand(c), "", "summary", "--reset")
	if err != nil {
		t.Fatalf("commands summary --reset: %v", err)
	}
	if !strings.Contains(out, "(default)") {
		t.Fatalf("summary after reset = %q", out)
	}
}

func TestSettingsCommand_ExportImportReset(t *testing.T) {
	c := newTestContainer(t, "")
	ctx := context.Background()
	if err := c.Settings.SetAPIKey(ctx, domain.ProviderGemini, "AIza-secret"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if err := c.Settings.SetModel(ctx, domain.ProviderGemini, "gemini-2.5-pro"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	exported, err := run(t, NewSettingsCommand(c), "", "export")
	if err != nil {
		t.Fatalf("settings export: %v", err)
	}
	if strings.Contains(exported, "AIza") || strings.Contains(exported, "encrypted") {
		t.Fatalf("export leaks key material: %s", exported)
	}

	if _, err := run(t, NewSettingsCommand(c), "", "reset"); err != nil {
		t.Fatalf("settings reset: %v", err)
	}
	s, err := c.Settings.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.GeminiModel != domain.DefaultGeminiModel || !s.HasGeminiKey {
		t.Fatalf("after reset = %+v", s)
	}

	if _, err := run(t, NewSettingsCommand(c), exported, "import"); err != nil {
		t.Fatalf("settings import: %v", err)
	}
	if s, _ = c.Settings.Load(ctx); s.GeminiModel != "gemini-2.5-pro" {
		t.Fatalf("after import model = %q", s.GeminiModel)
	}
}

func TestHistoryCommand_ListAndClear(t *testing.T) {
	c := newTestContainer(t, "")
	ctx := context.Background()

	out, err := run(t, NewHistoryCommand(c), "", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if strings.TrimSpace(out) != MsgNoHistoryRecorded {
		t.Fatalf("empty list = %q", out)
	}

	h, _ := history.Load(ctx, c.Store)
	for _, q := range []string{"one", "two", "three"} {
		if err := h.Append(ctx, q); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	out, err = run(t, NewHistoryCommand(c), "", "list", "--limit", "2")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if strings.Contains(out, "one") || !strings.Contains(out, "  2  two") || !strings.Contains(out, "  3  three") {
		t.Fatalf("list = %q", out)
	}

	if _, err := run(t, NewHistoryCommand(c), "", "clear"); err != nil {
		t.Fatalf("history clear: %v", err)
	}
	h, _ = history.Load(ctx, c.Store)
	if h.Len() != 0 {
		t.Fatalf("history after clear = %v", h.All())
	}
}

func TestDoctorCommand_FailsWithoutKey(t *testing.T) {
	c := newTestContainer(t, "")
	out, err := run(t, NewDoctorCommand(c), "")
	if err == nil {
		t.Fatal("expected doctor to fail without an API key")
	}
	if !strings.Contains(out, "[OK] Config file") || !strings.Contains(out, "[ERROR]") {
		t.Fatalf("report = %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, NewVersionCommand(), "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "AskPage version dev\n") {
		t.Fatalf("version = %q", out)
	}
}

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"OFF", false, false},
		{"true", true, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := parseOnOff(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("parseOnOff(%q) = %v, %v", tt.in, got, err)
		}
	}
}
