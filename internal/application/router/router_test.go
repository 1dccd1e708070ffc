package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/doeshing/askpage-go/internal/application/settings"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/infrastructure/kvstore"
	"github.com/doeshing/askpage-go/internal/infrastructure/secret"
	"github.com/doeshing/askpage-go/internal/pkg/logger"
)

type stubBackend struct {
	id     domain.ProviderID
	answer string
	err    error
	calls  int
	creds  domain.Credentials
	prompt domain.Prompt
}

func (s *stubBackend) ID() domain.ProviderID { return s.id }

func (s *stubBackend) Complete(_ context.Context, creds domain.Credentials, prompt domain.Prompt) (string, error) {
	s.calls++
	s.creds = creds
	s.prompt = prompt
	return s.answer, s.err
}

type fixture struct {
	svc    *settings.Service
	store  *kvstore.MemoryStore
	gemini *stubBackend
	openai *stubBackend
	router *Router
}

func newFixture() *fixture {
	store := kvstore.NewMemoryStore()
	svc := &settings.Service{Store: store, Codec: secret.NewCodec(store)}
	f := &fixture{
		svc:    svc,
		store:  store,
		gemini: &stubBackend{id: domain.ProviderGemini, answer: "from gemini"},
		openai: &stubBackend{id: domain.ProviderOpenAI, answer: "from openai"},
	}
	f.router = New(svc, svc.Codec, "zh-tw", logger.Nop(), f.gemini, f.openai)
	return f
}

func TestRouter_NoAPIKey(t *testing.T) {
	f := newFixture()
	_, err := f.router.Ask(context.Background(), domain.AskRequest{Question: "q"})
	if !domain.IsCode(err, domain.ErrCodeNoAPIKey) {
		t.Fatalf("Ask error = %v, want NO_API_KEY", err)
	}
	if f.gemini.calls != 0 {
		t.Fatalf("backend called without a key")
	}
}

func TestRouter_UsesActiveProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_ = f.svc.SetAPIKey(ctx, domain.ProviderOpenAI, "sk-live")
	_ = f.svc.SetProvider(ctx, domain.ProviderOpenAI)
	_ = f.svc.SetModel(ctx, domain.ProviderOpenAI, "o3-mini")

	answer, err := f.router.Ask(ctx, domain.AskRequest{Question: "q", PageText: "body"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "from openai" || f.gemini.calls != 0 {
		t.Fatalf("answer = %q, gemini calls = %d", answer, f.gemini.calls)
	}
	if f.openai.creds.APIKey != "sk-live" || f.openai.creds.Model != "o3-mini" {
		t.Fatalf("credentials = %+v", f.openai.creds)
	}
	if !strings.Contains(f.openai.prompt.System, "zh-tw") || f.openai.prompt.PageText != "body" {
		t.Fatalf("prompt = %+v", f.openai.prompt)
	}
}

func TestRouter_DecryptionFailedNeverFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_ = f.store.Set(ctx, domain.KeyGeminiAPIKey, "AIza-legacy-plaintext")

	_, err := f.router.Ask(ctx, domain.AskRequest{Question: "q"})
	if !domain.IsCode(err, domain.ErrCodeDecryptionFailed) {
		t.Fatalf("Ask error = %v, want DECRYPTION_FAILED", err)
	}
	if f.gemini.calls != 0 {
		t.Fatalf("backend must not be called with an undecryptable key")
	}
}

func TestRouter_PropagatesBackendErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_ = f.svc.SetAPIKey(ctx, domain.ProviderGemini, "AIza")
	f.gemini.err = domain.NewNetworkOrAPI("500 Internal Server Error: boom", nil)

	_, err := f.router.Ask(ctx, domain.AskRequest{Question: "q"})
	if !domain.IsCode(err, domain.ErrCodeNetworkOrAPI) {
		t.Fatalf("Ask error = %v, want NETWORK_OR_API_ERROR", err)
	}
	var dErr *domain.Error
	if !errors.As(err, &dErr) || !strings.Contains(dErr.Message, "boom") {
		t.Fatalf("error body lost: %v", err)
	}
}
