// Package command interprets dialog input: slash commands resolve to local
// actions or canned questions, everything else passes through as a question.
package command

import (
	"strings"

	"github.com/doeshing/askpage-go/internal/domain"
)

// Kind classifies an interpretation.
type Kind int

const (
	// KindAsk sends Result.Question to the active provider.
	KindAsk Kind = iota
	// KindClearHistory empties the prompt history.
	KindClearHistory
	// KindToggleFlag flips the session flag named by Result.Flag.
	KindToggleFlag
	// KindUnknownCommand reports an unrecognized slash command.
	KindUnknownCommand
)

func (k Kind) String() string {
	switch k {
	case KindAsk:
		return "ask"
	case KindClearHistory:
		return "clear-history"
	case KindToggleFlag:
		return "toggle-flag"
	case KindUnknownCommand:
		return "unknown-command"
	default:
		return "invalid"
	}
}

// Context is the dialog state an interpretation depends on.
type Context struct {
	HasSelection bool
}

// Result is the outcome of Interpret.
type Result struct {
	Kind     Kind
	Question string
	Flag     string
	Raw      string
	// Command is the matched command; nil for plain questions and unknown commands.
	Command *domain.Command
	Scope   domain.Scope
}

// Interpreter resolves input against built-in and user-defined commands.
// It is immutable; rebuild it when the command set changes.
type Interpreter struct {
	commands []domain.Command
	index    map[string]int
}

// NewInterpreter builds an interpreter. summaryPrompt overrides the /summary
// prompt when non-empty. User commands whose trigger collides with an earlier
// command are ignored; definition-time validation keeps that from happening.
func NewInterpreter(summaryPrompt string, user []domain.Command) *Interpreter {
	in := &Interpreter{index: map[string]int{}}
	for _, cmd := range domain.BuiltinCommands(summaryPrompt) {
		in.add(cmd)
	}
	for _, cmd := range user {
		cmd.Kind = domain.CommandUserDefined
		in.add(cmd)
	}
	return in
}

func (in *Interpreter) add(cmd domain.Command) {
	if _, exists := in.index[cmd.Trigger]; exists {
		return
	}
	in.index[cmd.Trigger] = len(in.commands)
	in.commands = append(in.commands, cmd)
}

// Interpret classifies raw input. raw is expected to be trimmed already.
func (in *Interpreter) Interpret(raw string, ctx Context) Result {
	scope := domain.ScopePage
	if ctx.HasSelection {
		scope = domain.ScopeSelection
	}
	if !strings.HasPrefix(raw, "/") {
		return Result{Kind: KindAsk, Question: raw, Raw: raw, Scope: scope}
	}

	cmd, ok := in.Lookup(raw)
	if !ok {
		return Result{Kind: KindUnknownCommand, Raw: raw, Scope: scope}
	}
	result := Result{Raw: raw, Command: &cmd, Scope: scope}
	switch cmd.Trigger {
	case domain.TriggerClear:
		result.Kind = KindClearHistory
	case domain.TriggerScreenshot:
		result.Kind = KindToggleFlag
		result.Flag = domain.FlagScreenshot
	default:
		result.Kind = KindAsk
		result.Question = cmd.Prompt
	}
	return result
}

// Lookup finds a command by exact trigger.
func (in *Interpreter) Lookup(trigger string) (domain.Command, bool) {
	i, ok := in.index[trigger]
	if !ok {
		return domain.Command{}, false
	}
	return in.commands[i], true
}

// Suggest returns the commands whose trigger starts with partial, built-ins
// first in fixed order, then user commands in definition order. Input not
// starting with "/" yields nothing.
func (in *Interpreter) Suggest(partial string) []domain.Command {
	if !strings.HasPrefix(partial, "/") {
		return nil
	}
	var out []domain.Command
	for _, cmd := range in.commands {
		if strings.HasPrefix(cmd.Trigger, partial) {
			out = append(out, cmd)
		}
	}
	return out
}

// Commands returns every command in menu order.
func (in *Interpreter) Commands() []domain.Command {
	return append([]domain.Command(nil), in.commands...)
}
