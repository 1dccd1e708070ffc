package domain

// Scope says what a question is about.
type Scope string

const (
	ScopePage      Scope = "page"
	ScopeSelection Scope = "selection"
)

// Screenshot is an encoded image of the visible page.
type Screenshot struct {
	MimeType string
	Data     []byte
}

// PageSnapshot is the extracted content of a page at the moment the dialog
// opened.
type PageSnapshot struct {
	URL       string
	Title     string
	Text      string
	Selection string
}

// AskRequest is everything the router needs for one question.
type AskRequest struct {
	Question   string
	Selection  string
	PageText   string
	PageURL    string
	Screenshot *Screenshot
}

// Scope reports whether the request targets a selection.
func (r AskRequest) Scope() Scope {
	if r.Selection != "" {
		return ScopeSelection
	}
	return ScopePage
}

// Prompt is the provider-neutral input handed to a backend adapter after
// truncation.
type Prompt struct {
	System     string
	PageText   string
	Selection  string
	Question   string
	Screenshot *Screenshot
}
