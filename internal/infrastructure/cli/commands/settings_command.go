package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/askpage-go/internal/app"
	"github.com/doeshing/askpage-go/internal/domain"
)

// NewSettingsCommand creates the settings command: export, import and reset
// of the user settings kept in the store.
func NewSettingsCommand(container *app.Container) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Export, import or reset user settings",
	}

	settingsCmd.AddCommand(
		newSettingsExportCommand(container),
		newSettingsImportCommand(container),
		newSettingsResetCommand(container),
	)

	return settingsCmd
}

func newSettingsExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write settings as JSON (API keys are never exported)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == app.StdinTarget {
				return container.Settings.Export(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.SecureFilePermissions)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}
			if err := container.Settings.Export(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Settings exported to %s\n", args[0])
			return nil
		},
	}
}

func newSettingsImportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Apply a settings file written by export",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != app.StdinTarget {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}
			imported, err := container.Settings.Import(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings imported (%d custom commands).\n", len(imported.CustomCommands))
			return nil
		},
	}
}

func newSettingsResetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset settings to defaults, keeping API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Settings == nil {
				return errors.New(ErrSettingsUnavailable)
			}
			if p := container.Prompter; p != nil && p.Enabled() {
				ok, err := p.Confirm("Reset provider, models, commands and history? API keys are kept.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), MsgSettingsResetCancelled)
					return nil
				}
			}
			if err := container.Settings.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings reset.")
			return nil
		},
	}
}
