package domain

// Config mirrors ~/.askpage/config.yaml.
//
// User settings (provider, models, keys, commands) are not part of it; they
// live in the key-value store.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version"`
	Store               StoreSettings      `yaml:"store"`
	Endpoints           EndpointSettings   `yaml:"endpoints"`
	Generation          GenerationSettings `yaml:"generation"`
	Prompt              PromptSettings     `yaml:"prompt"`
	Page                PageSettings       `yaml:"page"`
	UI                  UISettings         `yaml:"ui"`
}

// StoreBackend selects the key-value storage engine.
type StoreBackend string

const (
	StoreSQLite StoreBackend = "sqlite"
	StoreFile   StoreBackend = "file"
)

// StoreSettings configures the key-value store.
type StoreSettings struct {
	Backend StoreBackend `yaml:"backend"`
	Path    string       `yaml:"path"`
}

// EndpointSettings holds backend base URLs.
type EndpointSettings struct {
	Gemini string `yaml:"gemini"`
	OpenAI string `yaml:"openai"`
}

// PromptSettings tunes the system prompts.
type PromptSettings struct {
	ResponseLanguage string `yaml:"response_language"`
}

// PageSettings configures page extraction.
type PageSettings struct {
	DisabledHosts []string `yaml:"disabled_hosts"`
	UserAgent     string   `yaml:"user_agent"`
	UseBrowser    bool     `yaml:"use_browser"`
}

// UISettings configures terminal rendering.
type UISettings struct {
	MarkdownStyle string `yaml:"markdown_style"`
	WordWrap      int    `yaml:"word_wrap"`
}
