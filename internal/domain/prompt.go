package domain

import "fmt"

const (
	pagePromptTemplate = "You are a helpful assistant that answers questions about the provided web page content. " +
		"Please format your answer using Markdown when appropriate. " +
		"As a default, provide responses in %s unless specified otherwise. " +
		"Do not provide any additional explanations or disclaimers unless explicitly asked. " +
		"No prefix or suffix is needed for the response."

	selectionPromptTemplate = "You are a helpful assistant that answers questions about web page content. " +
		"The user has selected specific text that they want to focus on, but you also have the full page context for background understanding. " +
		"Please focus primarily on the selected text while using the full page context to provide comprehensive answers. " +
		"As a default, provide responses in %s unless specified otherwise. " +
		"Do not provide any additional explanations or disclaimers unless explicitly asked. " +
		"No prefix or suffix is needed for the response."
)

// Context labels prefixed to the page and selection parts.
const (
	PageContentLabel     = "Page content:\n"
	FullPageContextLabel = "Full page content for context:\n"
	SelectionLabel       = "Selected text (main focus):\n"
)

// BuildPrompt picks the system prompt for the request scope and truncates
// page text and selection independently.
func BuildPrompt(req AskRequest, language string) Prompt {
	if language == "" {
		language = DefaultResponseLanguage
	}
	template := pagePromptTemplate
	if req.Scope() == ScopeSelection {
		template = selectionPromptTemplate
	}
	return Prompt{
		System:     fmt.Sprintf(template, language),
		PageText:   Truncate(req.PageText, MaxPageContextChars),
		Selection:  Truncate(req.Selection, MaxSelectionChars),
		Question:   req.Question,
		Screenshot: req.Screenshot,
	}
}

// PageLabel returns the label for the page part.
func (p Prompt) PageLabel() string {
	if p.Selection != "" {
		return FullPageContextLabel
	}
	return PageContentLabel
}

// Truncate keeps at most limit Unicode code points of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
