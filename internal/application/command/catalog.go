package command

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/doeshing/askpage-go/internal/domain"
)

// ValidateTrigger checks user-defined trigger syntax.
func ValidateTrigger(trigger string) error {
	if !domain.TriggerPattern.MatchString(trigger) {
		return domain.NewInvalidCommand(fmt.Sprintf(
			"invalid command %q: must start with / followed by a letter, then letters, digits or underscores", trigger))
	}
	return nil
}

// Catalog edits the user-defined command list. It never mutates the slice it
// was built from; every edit returns the new list.
type Catalog struct {
	commands []domain.Command
	newID    func() string
}

// NewCatalog wraps the stored user commands.
func NewCatalog(user []domain.Command) *Catalog {
	return &Catalog{
		commands: append([]domain.Command(nil), user...),
		newID:    func() string { return uuid.NewString() },
	}
}

// Commands returns the current list.
func (c *Catalog) Commands() []domain.Command {
	return append([]domain.Command(nil), c.commands...)
}

// Add appends a command after validating its trigger and prompt.
func (c *Catalog) Add(trigger, prompt string) (domain.Command, error) {
	trigger = strings.TrimSpace(trigger)
	prompt = strings.TrimSpace(prompt)
	if err := c.validate(trigger, prompt, -1); err != nil {
		return domain.Command{}, err
	}
	cmd := domain.Command{
		Kind:    domain.CommandUserDefined,
		ID:      c.newID(),
		Name:    strings.TrimPrefix(trigger, "/"),
		Trigger: trigger,
		Prompt:  prompt,
	}
	c.commands = append(c.commands, cmd)
	return cmd, nil
}

// Update replaces trigger and prompt of the command addressed by id or
// trigger. An empty trigger or prompt keeps the current one.
func (c *Catalog) Update(identifier, trigger, prompt string) (domain.Command, error) {
	if domain.IsBuiltinTrigger(identifier) {
		return domain.Command{}, domain.NewBuiltinNotEditable(identifier)
	}
	i := c.find(identifier)
	if i < 0 {
		return domain.Command{}, domain.NewCommandNotFound(identifier)
	}
	trigger = strings.TrimSpace(trigger)
	prompt = strings.TrimSpace(prompt)
	if trigger == "" {
		trigger = c.commands[i].Trigger
	}
	if prompt == "" {
		prompt = c.commands[i].Prompt
	}
	if err := c.validate(trigger, prompt, i); err != nil {
		return domain.Command{}, err
	}
	cmd := c.commands[i]
	if cmd.ID == "" {
		cmd.ID = c.newID()
	}
	cmd.Kind = domain.CommandUserDefined
	cmd.Trigger = trigger
	cmd.Name = strings.TrimPrefix(trigger, "/")
	cmd.Prompt = prompt
	c.commands[i] = cmd
	return cmd, nil
}

// Delete removes the command addressed by id or trigger.
func (c *Catalog) Delete(identifier string) (domain.Command, error) {
	if domain.IsBuiltinTrigger(identifier) {
		return domain.Command{}, domain.NewBuiltinNotEditable(identifier)
	}
	i := c.find(identifier)
	if i < 0 {
		return domain.Command{}, domain.NewCommandNotFound(identifier)
	}
	removed := c.commands[i]
	c.commands = append(c.commands[:i:i], c.commands[i+1:]...)
	return removed, nil
}

func (c *Catalog) validate(trigger, prompt string, self int) error {
	if err := ValidateTrigger(trigger); err != nil {
		return err
	}
	if prompt == "" {
		return domain.NewInvalidCommand("prompt must not be empty")
	}
	if domain.IsBuiltinTrigger(trigger) {
		return domain.NewCommandConflict(trigger)
	}
	for i, cmd := range c.commands {
		if i != self && cmd.Trigger == trigger {
			return domain.NewCommandConflict(trigger)
		}
	}
	return nil
}

func (c *Catalog) find(identifier string) int {
	for i, cmd := range c.commands {
		if (cmd.ID != "" && cmd.ID == identifier) || cmd.Trigger == identifier {
			return i
		}
	}
	return -1
}
