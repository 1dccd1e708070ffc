package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/doeshing/askpage-go/internal/app"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/infrastructure/render"
	"github.com/doeshing/askpage-go/internal/infrastructure/tui"
)

// NewDialogCommand creates the interactive dialog command.
func NewDialogCommand(container *app.Container) *cobra.Command {
	var flags pageFlags

	cmd := &cobra.Command{
		Use:   "dialog",
		Short: "Open the interactive question dialog over a page",
		Long: `Open the question dialog over a page.

Keys: enter sends, up/down walk the prompt history or the command menu,
tab completes a command, ctrl+p switches provider, ctrl+y copies the last
answer, ctrl+t (or SIGUSR1) toggles the dialog, esc closes it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.target == app.StdinTarget {
				return errors.New(ErrDialogNeedsTerminal)
			}
			page, err := container.OpenPage(flags.input(nil))
			if err != nil {
				return err
			}
			defer page.Close()

			if container.Logger.Verbose() {
				logFile, err := openLogFile(container.ConfigLoader.Dir())
				if err != nil {
					return err
				}
				defer logFile.Close()
				container.Logger.Redirect(logFile, true)
				fmt.Fprintf(cmd.ErrOrStderr(), "debug log: %s\n", logFile.Name())
			}

			return tui.Run(cmd.Context(), tui.Options{
				Controller: container.NewDialog(page, flags.ephemeral),
				Renderer:   render.NewTerminal(container.Config.UI.MarkdownStyle, container.Config.UI.WordWrap),
				Clipboard:  container.Clipboard,
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func openLogFile(dir string) (*os.File, error) {
	path := filepath.Join(dir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, domain.SecureFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
