package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/askpage-go/internal/app"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/infrastructure/cli/helpers"
)

// pageFlags are shared by ask and dialog.
type pageFlags struct {
	target         string
	selection      string
	screenshotFile string
	browser        bool
	ephemeral      bool
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.target, "page", "u", "", "Page URL or local file (\"-\" reads the page text from stdin)")
	cmd.Flags().StringVarP(&f.selection, "selection", "s", "", "Selected text; questions focus on it instead of the whole page")
	cmd.Flags().StringVar(&f.screenshotFile, "screenshot-file", "", "PNG, JPEG or WebP image sent as the page screenshot")
	cmd.Flags().BoolVar(&f.browser, "browser", false, "Render the page in headless Chromium")
	cmd.Flags().BoolVar(&f.ephemeral, "ephemeral", false, "Do not record questions in the prompt history")
}

func (f *pageFlags) input(stdin io.Reader) app.PageInput {
	return app.PageInput{
		Target:         f.target,
		Selection:      f.selection,
		ScreenshotFile: f.screenshotFile,
		UseBrowser:     f.browser,
		Stdin:          stdin,
	}
}

type askOptions struct {
	page    pageFlags
	format  string
	copy    bool
	timeout time.Duration
}

// NewAskCommand creates the one-shot ask command. Slash commands work the
// same as in the dialog.
func NewAskCommand(container *app.Container) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about a page and print the answer",
		Example: `  askpage ask -u https://go.dev/doc/effective_go "What does it say about interfaces?"
  askpage ask -u article.html /summary
  curl -s https://example.com | askpage ask -u - "Who owns this domain?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}
			return runAsk(ctx, cmd, container, opts, strings.Join(args, " "))
		},
	}

	opts.page.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", helpers.FormatText, "Answer format: text, markdown or html")
	cmd.Flags().BoolVarP(&opts.copy, "copy", "c", false, "Copy the answer to the clipboard")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up after this long (0 waits for the provider)")
	return cmd
}

func runAsk(ctx context.Context, cmd *cobra.Command, container *app.Container, opts askOptions, question string) error {
	if strings.TrimSpace(question) == "" {
		return errors.New(ErrQuestionRequired)
	}
	renderer, err := helpers.AnswerRenderer(opts.format, container.Config.UI)
	if err != nil {
		return err
	}

	page, err := container.OpenPage(opts.page.input(cmd.InOrStdin()))
	if err != nil {
		return err
	}
	defer page.Close()

	ctrl := container.NewDialog(page, opts.page.ephemeral)
	if err := ctrl.Toggle(ctx); err != nil {
		return err
	}
	welcome := ctrl.Transcript()
	ctrl.SetInput(question)
	req := ctrl.Submit(ctx)
	if req == nil {
		return reportLocalCommand(cmd.OutOrStdout(), welcome, ctrl.Transcript())
	}

	spinner := helpers.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Asking %s...", req.Provider.DisplayName()))
	spinner.Start()
	reply := ctrl.Execute(ctx, req)
	spinner.Stop()

	if reply.Notice != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "note:", reply.Notice)
	}
	if reply.Err != nil && !domain.IsCode(reply.Err, domain.ErrCodeMalformedResponse) {
		return reply.Err
	}
	ctrl.Deliver(reply)
	answer, _ := ctrl.LastAnswer()

	if err := helpers.WriteAnswer(cmd.OutOrStdout(), renderer, answer); err != nil {
		return err
	}
	if opts.copy {
		return copyAnswer(cmd.ErrOrStderr(), container, answer)
	}
	return nil
}

// reportLocalCommand prints the outcome of a command that never reached a
// provider, such as /clear. An error message becomes the command error.
func reportLocalCommand(out io.Writer, before, after []domain.Message) error {
	if len(after) == 0 {
		return nil
	}
	last := after[len(after)-1]
	if len(before) > 0 && last == before[len(before)-1] {
		return nil
	}
	switch last.Role {
	case domain.RoleError:
		return errors.New(last.Text)
	case domain.RoleSystem:
		fmt.Fprintln(out, last.Text)
	}
	return nil
}

func copyAnswer(out io.Writer, container *app.Container, answer string) error {
	if container.Clipboard == nil || !container.Clipboard.Enabled() {
		return errors.New("clipboard is not available on this system")
	}
	if err := container.Clipboard.Copy(answer); err != nil {
		return fmt.Errorf("copy answer: %w", err)
	}
	fmt.Fprintf(out, "Copied %s characters to the clipboard.\n", humanize.Comma(int64(len([]rune(answer)))))
	return nil
}
