package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doeshing/askpage-go/internal/app"
	"github.com/doeshing/askpage-go/internal/domain"
)

// NewCommandsCommand creates the commands command for managing slash commands.
func NewCommandsCommand(container *app.Container) *cobra.Command {
	commandsCmd := &cobra.Command{
		Use:   "commands",
		Short: "Manage slash commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCommands(cmd, container)
		},
	}

	commandsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List built-in and custom commands",
			RunE: func(cmd *cobra.Command, args []string) error {
				return listCommands(cmd, container)
			},
		},
		&cobra.Command{
			Use:   "add </trigger> <prompt>",
			Short: "Add a custom command",
			Example: `  askpage commands add /translate "Translate the page into English"`,
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				added, err := container.Settings.AddCommand(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Trigger, added.ID)
				return nil
			},
		},
		newCommandsEditCommand(container),
		&cobra.Command{
			Use:   "delete <id|/trigger>",
			Short: "Delete a custom command",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deleted, err := container.Settings.DeleteCommand(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", deleted.Trigger)
				return nil
			},
		},
		newCommandsSummaryCommand(container),
	)

	return commandsCmd
}

func newCommandsEditCommand(container *app.Container) *cobra.Command {
	var trigger, prompt string

	cmd := &cobra.Command{
		Use:   "edit <id|/trigger>",
		Short: "Change a custom command's trigger or prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if trigger == "" && prompt == "" {
				return fmt.Errorf("nothing to change: pass --trigger and/or --prompt")
			}
			updated, err := container.Settings.UpdateCommand(cmd.Context(), args[0], trigger, prompt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", updated.Trigger)
			return nil
		},
	}

	cmd.Flags().StringVar(&trigger, "trigger", "", "New trigger, e.g. /explain")
	cmd.Flags().StringVar(&prompt, "prompt", "", "New prompt text")
	return cmd
}

func newCommandsSummaryCommand(container *app.Container) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "summary [prompt]",
		Short: "Show or override the /summary prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if reset || len(args) > 0 {
				prompt := ""
				if !reset {
					prompt = strings.Join(args, " ")
				}
				if err := container.Settings.SetSummaryPrompt(ctx, prompt); err != nil {
					return err
				}
			}
			s, err := container.Settings.Load(ctx)
			if err != nil {
				return err
			}
			prompt := s.CustomSummaryPrompt
			if prompt == "" {
				prompt = domain.DefaultSummaryPrompt + " (default)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Restore the default prompt")
	return cmd
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func listCommands(cmd *cobra.Command, container *app.Container) error {
	interpreter, err := container.Settings.Interpreter(cmd.Context())
	if err != nil {
		return err
	}
	return writeCommandTable(cmd.OutOrStdout(), interpreter.Commands())
}

func writeCommandTable(out io.Writer, cmds []domain.Command) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIGGER\tKIND\tID\tEDITABLE\tPROMPT")
	custom := 0
	for _, c := range cmds {
		text := c.Prompt
		if text == "" {
			text = c.Description
		}
		id := c.ID
		if id == "" {
			id = "-"
		}
		if !c.IsBuiltin() {
			custom++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Trigger, c.Kind, id, yesNo(c.Editable()), domain.Truncate(text, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if custom == 0 {
		fmt.Fprintln(out, MsgNoCustomCommands)
	}
	return nil
}
