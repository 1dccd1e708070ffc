// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The command interpreter, prompt history, provider
// router and dialog controller depend only on these interfaces, so storage
// engines, LLM backends, page sources and terminal widgets can be swapped
// without touching them.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., KeyValueStore, Backend)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"net/http"

	"github.com/doeshing/askpage-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.askpage/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// KeyValueStore is the persistent settings store. Values are JSON documents.
// Every call completes before returning; last write wins.
type KeyValueStore interface {
	// Get decodes the value stored under key into dst. It reports false
	// when the key is absent and leaves dst untouched.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// GetRaw returns the stored JSON bytes, or nil when absent.
	GetRaw(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Close() error
}

// SecretCodec seals credentials at rest. Decrypt accepts the raw stored
// value and fails on anything that is not a valid envelope.
type SecretCodec interface {
	Encrypt(ctx context.Context, plaintext string) (domain.Envelope, error)
	Decrypt(ctx context.Context, stored []byte) (string, error)
}

// Backend answers one prompt using one LLM provider.
type Backend interface {
	ID() domain.ProviderID
	Complete(ctx context.Context, creds domain.Credentials, prompt domain.Prompt) (string, error)
}

// RequestAdapter converts a prompt into a provider HTTP request and the
// provider response back into answer text.
type RequestAdapter interface {
	Provider() domain.ProviderID
	BuildRequest(ctx context.Context, creds domain.Credentials, prompt domain.Prompt) (*http.Request, error)
	ExtractAnswer(resp *http.Response) (string, error)
}

// Asker is the provider router as seen by the dialog.
type Asker interface {
	Ask(ctx context.Context, req domain.AskRequest) (string, error)
}

// PageSource extracts the content of the page the dialog is opened over.
type PageSource interface {
	Snapshot(ctx context.Context) (domain.PageSnapshot, error)
}

// ScreenshotCapturer captures an image of the visible page.
type ScreenshotCapturer interface {
	Capture(ctx context.Context) (domain.Screenshot, error)
}

// MarkdownRenderer turns assistant Markdown into display output.
type MarkdownRenderer interface {
	Render(markdown string) (string, error)
}

// ConfirmationPrompter handles interactive yes/no confirmations for
// destructive operations such as settings reset.
type ConfirmationPrompter interface {
	Confirm(message string) (bool, error)
	Enabled() bool
}

// Clipboard provides cross-platform clipboard integration for copying answers.
type Clipboard interface {
	Copy(text string) error
	Enabled() bool
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stderr, files).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
