package domain

// File permissions constants
const (
	// DirectoryPermissions is the permission for the ~/.askpage directory (rwx------)
	DirectoryPermissions = 0o700
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Prompt limits
const (
	// MaxPageContextChars caps the page text sent to a backend.
	MaxPageContextChars = 15000
	// MaxSelectionChars caps the selected text, independent of the page budget.
	MaxSelectionChars = 5000
	// MaxHistoryEntries is the prompt history capacity.
	MaxHistoryEntries = 100
)

// Model defaults
const (
	DefaultProvider    = ProviderGemini
	DefaultGeminiModel = "gemini-2.5-flash-lite-preview-06-17"
	DefaultOpenAIModel = "gpt-4o-mini"

	DefaultTemperature     = 0.7
	DefaultTopP            = 0.95
	DefaultMaxOutputTokens = 2048

	DefaultResponseLanguage = "zh-tw"
)

// DefaultSummaryPrompt is what /summary asks when no override is stored.
const DefaultSummaryPrompt = "請幫我總結這篇文章，並以 Markdown 格式輸出，內容包含「標題」、「重點摘要」、「總結」"

// Key-value store keys.
const (
	KeyProvider            = "PROVIDER"
	KeyGeminiModel         = "GEMINI_MODEL"
	KeyOpenAIModel         = "OPENAI_MODEL"
	KeyGeminiAPIKey        = "GEMINI_API_KEY"
	KeyOpenAIAPIKey        = "OPENAI_API_KEY"
	KeyEncryptionKey       = "ENCRYPTION_KEY"
	KeyPromptHistory       = "ASKPAGE_PROMPT_HISTORY"
	KeyScreenshotEnabled   = "SCREENSHOT_ENABLED"
	KeyCustomSummaryPrompt = "CUSTOM_SUMMARY_PROMPT"
	KeyCustomCommands      = "CUSTOM_COMMANDS"
)

// ModelKey returns the store key holding the provider's model id.
func ModelKey(p ProviderID) string {
	if p == ProviderOpenAI {
		return KeyOpenAIModel
	}
	return KeyGeminiModel
}

// APIKeyKey returns the store key holding the provider's key envelope.
func APIKeyKey(p ProviderID) string {
	if p == ProviderOpenAI {
		return KeyOpenAIAPIKey
	}
	return KeyGeminiAPIKey
}

// FallbackAnswer is rendered when a backend answers without any text.
const FallbackAnswer = "No response received."
