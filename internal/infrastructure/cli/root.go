package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/askpage-go/internal/app"
	"github.com/doeshing/askpage-go/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The returned closer releases the
// settings store once the command has run.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, io.Closer, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, nil, err
	}
	container.Clipboard = NewClipboard()

	var assumeYes bool
	root := &cobra.Command{
		Use:   "askpage",
		Short: "AskPage - ask an LLM about a web page",
		Long: `AskPage sends a page's text, or a selection of it, together with your
question to Gemini or OpenAI and renders the Markdown answer.

Start with:
  askpage config key gemini        # store an API key (read from stdin)
  askpage dialog -u https://go.dev # open the interactive dialog
  askpage ask -u page.html /summary`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			container.Prompter = NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), assumeYes)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Read by main before the container exists; declared so cobra accepts it.
	root.PersistentFlags().Bool("debug", false, "Enable verbose logging (same as ASKPAGE_DEBUG=1)")
	root.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")

	root.AddCommand(
		commands.NewAskCommand(container),
		commands.NewDialogCommand(container),
		commands.NewConfigCommand(container),
		commands.NewCommandsCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewSettingsCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(),
	)
	return root, container, nil
}
