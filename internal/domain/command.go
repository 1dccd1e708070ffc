package domain

import "regexp"

// CommandKind tags the Command variant.
type CommandKind string

const (
	CommandBuiltin     CommandKind = "builtin"
	CommandUserDefined CommandKind = "user"
)

// Built-in triggers, in menu order.
const (
	TriggerClear      = "/clear"
	TriggerSummary    = "/summary"
	TriggerScreenshot = "/screenshot"
)

// FlagScreenshot names the flag toggled by /screenshot.
const FlagScreenshot = "screenshot"

// TriggerPattern is the syntax user-defined triggers must match.
var TriggerPattern = regexp.MustCompile(`^/[a-zA-Z][a-zA-Z0-9_]*$`)

// Command is a slash command. Built-ins have no ID; user-defined commands
// carry the ID they were created with.
type Command struct {
	Kind        CommandKind `json:"-"`
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name,omitempty"`
	Trigger     string      `json:"cmd"`
	Prompt      string      `json:"prompt"`
	Description string      `json:"desc,omitempty"`
}

// IsBuiltin reports whether c is one of the fixed commands.
func (c Command) IsBuiltin() bool {
	return c.Kind == CommandBuiltin
}

// Editable reports whether the command prompt may be changed.
// Among built-ins only /summary is editable.
func (c Command) Editable() bool {
	return !c.IsBuiltin() || c.Trigger == TriggerSummary
}

// BuiltinCommands returns the fixed commands in menu order. summaryPrompt
// fills /summary; empty means the default prompt.
func BuiltinCommands(summaryPrompt string) []Command {
	if summaryPrompt == "" {
		summaryPrompt = DefaultSummaryPrompt
	}
	return []Command{
		{
			Kind:        CommandBuiltin,
			Name:        "Clear",
			Trigger:     TriggerClear,
			Description: "Clear prompt history",
		},
		{
			Kind:        CommandBuiltin,
			Name:        "Summary",
			Trigger:     TriggerSummary,
			Prompt:      summaryPrompt,
			Description: "Summarize the page",
		},
		{
			Kind:        CommandBuiltin,
			Name:        "Screenshot",
			Trigger:     TriggerScreenshot,
			Description: "Toggle sending a screenshot with questions",
		},
	}
}

// IsBuiltinTrigger reports whether trigger is reserved by a built-in.
func IsBuiltinTrigger(trigger string) bool {
	switch trigger {
	case TriggerClear, TriggerSummary, TriggerScreenshot:
		return true
	}
	return false
}
