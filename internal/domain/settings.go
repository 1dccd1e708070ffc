package domain

// Settings is the user-facing state kept in the key-value store, with
// defaults applied. API keys are represented only by presence.
type Settings struct {
	Provider            ProviderID
	GeminiModel         string
	OpenAIModel         string
	ScreenshotEnabled   bool
	CustomSummaryPrompt string
	CustomCommands      []Command
	HasGeminiKey        bool
	HasOpenAIKey        bool
}

// ModelFor returns the model configured for p.
func (s Settings) ModelFor(p ProviderID) string {
	if p == ProviderOpenAI {
		return s.OpenAIModel
	}
	return s.GeminiModel
}

// HasKeyFor reports whether a key is stored for p.
func (s Settings) HasKeyFor(p ProviderID) bool {
	if p == ProviderOpenAI {
		return s.HasOpenAIKey
	}
	return s.HasGeminiKey
}

// ExportedSettings is the JSON document written by settings export.
// It never carries API keys.
type ExportedSettings struct {
	Provider            ProviderID `json:"provider,omitempty"`
	GeminiModel         string     `json:"geminiModel,omitempty"`
	OpenAIModel         string     `json:"openaiModel,omitempty"`
	CustomSummaryPrompt string     `json:"customSummaryPrompt,omitempty"`
	CustomCommands      []Command  `json:"customCommands"`
}
