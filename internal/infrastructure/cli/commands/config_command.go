package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/askpage-go/internal/app"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/askpage-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with all subcommands. The
// provider, model, key and screenshot subcommands edit the settings store;
// the rest work on config.yaml.
func NewConfigCommand(container *app.Container) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change AskPage settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}

	configCmd.AddCommand(
		newConfigShowCommand(container),
		newConfigProviderCommand(container),
		newConfigModelCommand(container),
		newConfigKeyCommand(container),
		newConfigScreenshotCommand(container),
		newConfigGetCommand(container),
		newConfigSetCommand(container),
		newConfigEditCommand(container),
		newConfigValidateCommand(container),
		newConfigResetCommand(container),
		newConfigDiffCommand(container),
	)

	return configCmd
}

func newConfigShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show user settings and the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

func newConfigProviderCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:       "provider [gemini|openai]",
		Short:     "Show or set the active provider",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(domain.ProviderGemini), string(domain.ProviderOpenAI)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				s, err := container.Settings.Load(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.Provider)
				return nil
			}
			p, err := domain.ParseProvider(args[0])
			if err != nil {
				return err
			}
			if err := container.Settings.SetProvider(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active provider: %s\n", p.DisplayName())
			return nil
		},
	}
}

func newConfigModelCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "model <provider> [model]",
		Short: "Show or set the model used for a provider",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := domain.ParseProvider(args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 {
				s, err := container.Settings.Load(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.ModelFor(p))
				return nil
			}
			if err := container.Settings.SetModel(ctx, p, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s model: %s\n", p.DisplayName(), strings.TrimSpace(args[1]))
			return nil
		},
	}
}

func newConfigKeyCommand(container *app.Container) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "key <provider> [api-key]",
		Short: "Store or remove a provider API key (read from stdin when omitted)",
		Long: `Store or remove a provider API key.

The key is encrypted before it is written to the settings store. Pass it on
stdin to keep it out of the shell history:

  askpage config key gemini < gemini.key`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := domain.ParseProvider(args[0])
			if err != nil {
				return err
			}
			if remove {
				if err := container.Settings.RemoveAPIKey(ctx, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s API key removed.\n", p.DisplayName())
				return nil
			}

			key := ""
			if len(args) == 2 {
				key = args[1]
			} else {
				if key, err = readSecretLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if err := container.Settings.SetAPIKey(ctx, p, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s API key saved.\n", p.DisplayName())
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Delete the stored key")
	return cmd
}

func newConfigScreenshotCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:       "screenshot [on|off]",
		Short:     "Show or set whether a page screenshot is sent with questions",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				s, err := container.Settings.Load(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), onOff(s.ScreenshotEnabled))
				return nil
			}
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			if err := container.Settings.SetScreenshot(ctx, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Screenshot: %s\n", onOff(enabled))
			return nil
		},
	}
}

func newConfigGetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration file value (e.g. ui.markdown_style)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getConfigurationValue(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

func newConfigSetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration file value (value accepts YAML syntax)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigurationValue(cmd.Context(), container, args[0], strings.Join(args[1:], " "))
		},
	}
}

func newConfigEditCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the configuration file in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfigurationInEditor(container)
		},
	}
}

func newConfigValidateCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := container.ConfigProvider.Load(cmd.Context()); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgConfigurationValid)
			return nil
		},
	}
}

func newConfigResetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the configuration file to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetConfigurationToDefaults(cmd.OutOrStdout(), container)
		},
	}
}

func newConfigDiffCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show the configuration file's differences from the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigurationDiff(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

func showConfiguration(ctx context.Context, out io.Writer, container *app.Container) error {
	s, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Fprintf(out, "Provider:   %s\n", s.Provider.DisplayName())
	for _, p := range domain.Providers {
		key := "not set"
		if s.HasKeyFor(p) {
			key = "stored"
		}
		fmt.Fprintf(out, "%-11s %s (key %s)\n", p.DisplayName()+":", s.ModelFor(p), key)
	}
	fmt.Fprintf(out, "Screenshot: %s\n", onOff(s.ScreenshotEnabled))
	if s.CustomSummaryPrompt != "" {
		fmt.Fprintf(out, "Summary:    %s\n", s.CustomSummaryPrompt)
	}
	fmt.Fprintf(out, "Commands:   %d custom\n", len(s.CustomCommands))

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Fprintf(out, "\n# %s\n", container.ConfigLoader.Path())
	fmt.Fprint(out, string(data))
	return nil
}

func getConfigurationValue(ctx context.Context, out io.Writer, container *app.Container, keyPath string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfgMap, err := helpers.ConfigToMap(cfg)
	if err != nil {
		return err
	}

	value, found := helpers.TraverseNestedMap(cfgMap, strings.Split(keyPath, "."))
	if !found {
		return fmt.Errorf("key %s not found in configuration", keyPath)
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func setConfigurationValue(ctx context.Context, container *app.Container, keyPath string, value string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfgMap, err := helpers.ConfigToMap(cfg)
	if err != nil {
		return err
	}

	parsedValue, err := helpers.ParseYAMLValue(value)
	if err != nil {
		return fmt.Errorf("failed to parse value: %w", err)
	}
	keys := strings.Split(keyPath, ".")
	if _, found := helpers.TraverseNestedMap(cfgMap, keys); !found {
		return fmt.Errorf("key %s not found in configuration", keyPath)
	}
	if !helpers.SetNestedMapValue(cfgMap, keys, parsedValue) {
		return fmt.Errorf("unable to set key %s", keyPath)
	}

	updated, err := helpers.MapToConfig(cfgMap)
	if err != nil {
		return err
	}
	return helpers.SaveConfigWithValidation(container, updated)
}

func editConfigurationInEditor(container *app.Container) error {
	loader, err := helpers.GetConfigLoader(container)
	if err != nil {
		return err
	}

	editorCommand := getEditorCommand()
	cmd := exec.Command(editorCommand, loader.Path())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", editorCommand, err)
	}
	return nil
}

func resetConfigurationToDefaults(out io.Writer, container *app.Container) error {
	loader, err := helpers.GetConfigLoader(container)
	if err != nil {
		return err
	}
	if _, err := loader.Backup(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to create configuration backup: %w", err)
	}
	if _, err := loader.Reset(); err != nil {
		return fmt.Errorf("failed to reset configuration: %w", err)
	}
	fmt.Fprintf(out, "Configuration reset at %s\n", loader.Path())
	return nil
}

func showConfigurationDiff(ctx context.Context, out io.Writer, container *app.Container) error {
	currentConfig, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current configuration: %w", err)
	}

	diff := cmp.Diff(configinfra.DefaultConfig(), currentConfig)
	if diff == "" {
		fmt.Fprintln(out, MsgNoDifferencesFromDefault)
		return nil
	}
	fmt.Fprintln(out, diff)
	return nil
}

func getEditorCommand() string {
	if editor := os.Getenv(envKeyEditor); editor != "" {
		return editor
	}
	return DefaultEditorCommand
}

func readSecretLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func parseOnOff(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewInvalidSettings(fmt.Sprintf("expected on or off, got %q", raw))
	}
	return v, nil
}
