package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/infrastructure/kvstore"
	"github.com/doeshing/askpage-go/internal/infrastructure/secret"
)

func newService() (*Service, *kvstore.MemoryStore) {
	store := kvstore.NewMemoryStore()
	return &Service{Store: store, Codec: secret.NewCodec(store)}, store
}

func TestService_LoadDefaults(t *testing.T) {
	svc, _ := newService()
	got, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := domain.Settings{
		Provider:    domain.ProviderGemini,
		GeminiModel: "gemini-2.5-flash-lite-preview-06-17",
		OpenAIModel: "gpt-4o-mini",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestService_ActiveProviderNeverHasEmptyModel(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	_ = store.Set(ctx, domain.KeyProvider, "openai")
	_ = store.Set(ctx, domain.KeyOpenAIModel, "  ")

	active, err := svc.ActiveProvider(ctx)
	if err != nil {
		t.Fatalf("ActiveProvider: %v", err)
	}
	if active.Provider != domain.ProviderOpenAI || active.Model != "gpt-4o-mini" || active.HasKey() {
		t.Fatalf("unexpected active provider %+v", active)
	}
}

func TestService_SwitchProvider(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	first, err := svc.SwitchProvider(ctx)
	if err != nil || first != domain.ProviderOpenAI {
		t.Fatalf("first switch = %q, %v", first, err)
	}
	second, err := svc.SwitchProvider(ctx)
	if err != nil || second != domain.ProviderGemini {
		t.Fatalf("second switch = %q, %v", second, err)
	}
}

func TestService_SetAPIKeyStoresEnvelope(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	if err := svc.SetAPIKey(ctx, domain.ProviderGemini, " AIza-secret "); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	raw, _ := store.GetRaw(ctx, domain.KeyGeminiAPIKey)
	if bytes.Contains(raw, []byte("AIza-secret")) {
		t.Fatalf("key stored in plaintext: %s", raw)
	}
	plain, err := svc.Codec.Decrypt(ctx, raw)
	if err != nil || plain != "AIza-secret" {
		t.Fatalf("Decrypt = %q, %v", plain, err)
	}
	if err := svc.SetAPIKey(ctx, domain.ProviderGemini, " "); !domain.IsCode(err, domain.ErrCodeInvalidSettings) {
		t.Fatalf("empty key = %v, want INVALID_SETTINGS", err)
	}
}

func TestService_ToggleScreenshot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	on, err := svc.ToggleScreenshot(ctx)
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v", on, err)
	}
	off, err := svc.ToggleScreenshot(ctx)
	if err != nil || off {
		t.Fatalf("second toggle = %v, %v", off, err)
	}
}

func TestService_SummaryPromptFeedsInterpreter(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	if err := svc.SetSummaryPrompt(ctx, "Summarize in English"); err != nil {
		t.Fatalf("SetSummaryPrompt: %v", err)
	}
	in, err := svc.Interpreter(ctx)
	if err != nil {
		t.Fatalf("Interpreter: %v", err)
	}
	if cmd, _ := in.Lookup("/summary"); cmd.Prompt != "Summarize in English" {
		t.Fatalf("/summary prompt = %q", cmd.Prompt)
	}

	_ = svc.SetSummaryPrompt(ctx, "")
	if raw, _ := store.GetRaw(ctx, domain.KeyCustomSummaryPrompt); raw != nil {
		t.Fatalf("empty prompt should remove the override, got %s", raw)
	}
}

func TestService_CommandLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	added, err := svc.AddCommand(ctx, "/translate", "Translate to English")
	if err != nil {
		t.Fatalf("AddCommand: %v", err)
	}
	if _, err := svc.AddCommand(ctx, "/summary", "x"); !domain.IsCode(err, domain.ErrCodeCommandConflict) {
		t.Fatalf("AddCommand(/summary) = %v, want COMMAND_CONFLICT", err)
	}
	if _, err := svc.UpdateCommand(ctx, added.ID, "/tr", "Translate"); err != nil {
		t.Fatalf("UpdateCommand: %v", err)
	}

	in, _ := svc.Interpreter(ctx)
	if cmd, ok := in.Lookup("/tr"); !ok || cmd.Prompt != "Translate" || cmd.Kind != domain.CommandUserDefined {
		t.Fatalf("Lookup(/tr) = %+v, %v", cmd, ok)
	}

	if _, err := svc.DeleteCommand(ctx, "/tr"); err != nil {
		t.Fatalf("DeleteCommand: %v", err)
	}
	cmds, _ := svc.Commands(ctx)
	if len(cmds) != 0 {
		t.Fatalf("commands after delete = %+v", cmds)
	}
}

func TestService_ResetKeepsKeys(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	_ = svc.SetAPIKey(ctx, domain.ProviderOpenAI, "sk-test")
	_ = svc.SetProvider(ctx, domain.ProviderOpenAI)
	_ = svc.SetModel(ctx, domain.ProviderOpenAI, "o3-mini")
	_ = store.Set(ctx, domain.KeyPromptHistory, []string{"q"})
	_, _ = svc.AddCommand(ctx, "/x", "y")

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	keys, _ := store.Keys(ctx)
	want := []string{domain.KeyEncryptionKey, domain.KeyOpenAIAPIKey}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("keys after reset (-want +got):\n%s", diff)
	}

	active, _ := svc.ActiveProvider(ctx)
	plain, err := svc.Codec.Decrypt(ctx, active.Key)
	if active.Provider != domain.ProviderGemini || err == nil {
		t.Fatalf("active after reset = %+v (decrypt err %v)", active.Provider, err)
	}
	raw, _ := store.GetRaw(ctx, domain.KeyOpenAIAPIKey)
	if plain, err = svc.Codec.Decrypt(ctx, raw); err != nil || plain != "sk-test" {
		t.Fatalf("openai key after reset = %q, %v", plain, err)
	}
}

func TestService_ExportExcludesKeys(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_ = svc.SetAPIKey(ctx, domain.ProviderGemini, "AIza-secret")
	_ = svc.SetProvider(ctx, domain.ProviderOpenAI)
	_ = svc.SetModel(ctx, domain.ProviderOpenAI, "gpt-4o")
	_, _ = svc.AddCommand(ctx, "/tr", "Translate")

	var buf bytes.Buffer
	if err := svc.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	for _, banned := range []string{"AIza", "API_KEY", "encrypted", "ENCRYPTION_KEY"} {
		if strings.Contains(out, banned) {
			t.Fatalf("export leaked %q:\n%s", banned, out)
		}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	for _, field := range []string{"provider", "openaiModel", "customCommands"} {
		if _, ok := doc[field]; !ok {
			t.Errorf("export missing %s", field)
		}
	}
}

func TestService_ImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := newService()
	_ = src.SetProvider(ctx, domain.ProviderOpenAI)
	_ = src.SetSummaryPrompt(ctx, "Short summary")
	_, _ = src.AddCommand(ctx, "/tr", "Translate")
	var buf bytes.Buffer
	_ = src.Export(ctx, &buf)

	dst, _ := newService()
	if _, err := dst.Import(ctx, &buf); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got, _ := dst.Load(ctx)
	if got.Provider != domain.ProviderOpenAI || got.CustomSummaryPrompt != "Short summary" {
		t.Fatalf("imported settings = %+v", got)
	}
	if len(got.CustomCommands) != 1 || got.CustomCommands[0].Trigger != "/tr" {
		t.Fatalf("imported commands = %+v", got.CustomCommands)
	}

	empty, _ := newService()
	buf.Reset()
	if err := empty.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(buf.String(), `"customCommands": []`) {
		t.Fatalf("export without commands = %s", buf.String())
	}
	if _, err := dst.Import(ctx, &buf); err != nil {
		t.Fatalf("Import empty list: %v", err)
	}
	cmds, err := dst.Commands(ctx)
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("commands after importing an empty list = %+v", cmds)
	}
}

func TestService_ImportWithoutCommandsKeepsThem(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, _ = svc.AddCommand(ctx, "/tldr", "Summarize in one line")

	if _, err := svc.Import(ctx, strings.NewReader(`{"provider":"openai"}`)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	cmds, _ := svc.Commands(ctx)
	if len(cmds) != 1 || cmds[0].Trigger != "/tldr" {
		t.Fatalf("commands = %+v, want /tldr kept", cmds)
	}
}

type failingStore struct {
	*kvstore.MemoryStore
	failKey string
}

func (s failingStore) Set(ctx context.Context, key string, value any) error {
	if key == s.failKey {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func TestService_ImportWritesInOrder(t *testing.T) {
	ctx := context.Background()
	store := failingStore{MemoryStore: kvstore.NewMemoryStore(), failKey: domain.KeyCustomCommands}
	svc := &Service{Store: store}
	doc := `{"provider":"openai","customSummaryPrompt":"Short","customCommands":[{"cmd":"/ok","prompt":"p"}]}`

	_, err := svc.Import(ctx, strings.NewReader(doc))
	if err == nil || !strings.Contains(err.Error(), domain.KeyCustomCommands) {
		t.Fatalf("Import = %v, want failure on %s", err, domain.KeyCustomCommands)
	}
	keys, _ := store.Keys(ctx)
	sort.Strings(keys)
	want := []string{domain.KeyCustomSummaryPrompt, domain.KeyProvider}
	sort.Strings(want)
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("written keys (-want +got):\n%s", diff)
	}
}

func TestService_ImportIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	doc := `{"provider":"openai","customCommands":[{"cmd":"/ok","prompt":"p"},{"cmd":"/clear","prompt":"p"}]}`

	if _, err := svc.Import(ctx, strings.NewReader(doc)); !domain.IsCode(err, domain.ErrCodeCommandConflict) {
		t.Fatalf("Import = %v, want COMMAND_CONFLICT", err)
	}
	if keys, _ := store.Keys(ctx); len(keys) != 0 {
		t.Fatalf("rejected import wrote %v", keys)
	}
	if _, err := svc.Import(ctx, strings.NewReader(`{"provider":"claude"}`)); !domain.IsCode(err, domain.ErrCodeInvalidSettings) {
		t.Fatalf("bad provider = %v, want INVALID_SETTINGS", err)
	}
	if _, err := svc.Import(ctx, strings.NewReader(`[1,2]`)); !domain.IsCode(err, domain.ErrCodeInvalidSettings) {
		t.Fatalf("non-object = %v, want INVALID_SETTINGS", err)
	}
}
