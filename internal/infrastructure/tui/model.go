// Package tui is the terminal view of the question dialog. It forwards
// keys to dialog.Controller and renders the controller's state.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/doeshing/askpage-go/internal/application/dialog"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

const maxPaletteItems = 6

// Renderer renders Markdown at a given width.
type Renderer interface {
	RenderWidth(md string, width int) (string, error)
}

type (
	replyMsg struct {
		reply dialog.Reply
	}
	toggleMsg struct{}
)

// Model is the bubbletea model wrapping a dialog.Controller.
type Model struct {
	ctx       context.Context
	ctrl      *dialog.Controller
	renderer  Renderer
	clipboard ports.Clipboard

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	notice string
	ready  bool
	width  int
	height int
}

// Options configures a Model.
type Options struct {
	Controller *dialog.Controller
	Renderer   Renderer
	Clipboard  ports.Clipboard
}

// New builds the model. The dialog is opened by Init.
func New(ctx context.Context, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about this page, or type / for commands"
	ti.CharLimit = 4000
	ti.Prompt = "› "
	ti.PromptStyle = userLabelStyle
	ti.TextStyle = textStyle
	ti.PlaceholderStyle = subtitleStyle
	ti.Focus()

	vp := viewport.New(80, 20)
	// Printable keys belong to the input; only paging scrolls.
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = noticeStyle

	return Model{
		ctx:       ctx,
		ctrl:      opts.Controller,
		renderer:  opts.Renderer,
		clipboard: opts.Clipboard,
		input:     ti,
		viewport:  vp,
		spinner:   s,
		width:     80,
		height:    24,
	}
}

// Init opens the dialog.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return toggleMsg{} })
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()

	case toggleMsg:
		m.toggle()

	case replyMsg:
		m.ctrl.Deliver(msg.reply)
		m.refresh()

	case spinner.TickMsg:
		if m.ctrl.Pending() > 0 {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+t" {
			m.toggle()
			return m, nil
		}
		if m.ctrl.State() != dialog.StateOpen {
			if msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.handleKey(msg)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var req *dialog.Request
	switch msg.String() {
	case "ctrl+p":
		m.notice = ""
		m.ctrl.SwitchProvider(m.ctx)
		m.refresh()
		return m, nil
	case "ctrl+y":
		m.copyLastAnswer()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "enter":
		req = m.ctrl.HandleKey(m.ctx, dialog.KeyEnter)
	case "tab":
		req = m.ctrl.HandleKey(m.ctx, dialog.KeyTab)
	case "up":
		req = m.ctrl.HandleKey(m.ctx, dialog.KeyUp)
	case "down":
		req = m.ctrl.HandleKey(m.ctx, dialog.KeyDown)
	case "esc":
		req = m.ctrl.HandleKey(m.ctx, dialog.KeyEscape)
	default:
		var cmd tea.Cmd
		before := m.input.Value()
		m.input, cmd = m.input.Update(msg)
		if v := m.input.Value(); v != before {
			m.ctrl.SetInput(v)
		}
		return m, cmd
	}

	m.syncInput()
	m.refresh()
	if req == nil {
		return m, nil
	}
	m.notice = ""
	return m, tea.Batch(m.execute(req), m.spinner.Tick)
}

// execute runs the provider call off the update loop. Execute touches no
// session state, so the controller can be shared with the goroutine.
func (m Model) execute(req *dialog.Request) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return replyMsg{reply: ctrl.Execute(ctx, req)}
	}
}

func (m *Model) toggle() {
	m.notice = ""
	if err := m.ctrl.Toggle(m.ctx); err != nil {
		m.notice = err.Error()
	}
	m.syncInput()
	m.refresh()
}

func (m *Model) copyLastAnswer() {
	answer, ok := m.ctrl.LastAnswer()
	switch {
	case !ok:
		m.notice = "Nothing to copy yet."
	case m.clipboard == nil || !m.clipboard.Enabled():
		m.notice = "Clipboard is not available."
	default:
		if err := m.clipboard.Copy(answer); err != nil {
			m.notice = "Copy failed: " + err.Error()
			return
		}
		m.notice = fmt.Sprintf("Copied %s characters.", humanize.Comma(int64(len([]rune(answer)))))
	}
}

func (m *Model) syncInput() {
	m.input.SetValue(m.ctrl.Input())
	m.input.CursorEnd()
}

func (m *Model) resize() {
	contentWidth := m.width - 2
	if contentWidth < 20 {
		contentWidth = 20
	}
	// header, input box (3), palette, status bar
	vpHeight := m.height - 1 - 3 - 1 - m.paletteHeight()
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = contentWidth
	m.viewport.Height = vpHeight
	m.input.Width = contentWidth - 6
}

func (m Model) paletteHeight() int {
	menu := m.ctrl.Menu()
	if !menu.Visible {
		return 0
	}
	n := len(menu.Items)
	if n > maxPaletteItems {
		n = maxPaletteItems
	}
	return n + 2
}

// refresh rebuilds the transcript and keeps it scrolled to the newest message.
func (m *Model) refresh() {
	m.resize()
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := m.viewport.Width - 2
	var b strings.Builder
	for i, msg := range m.ctrl.Transcript() {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString(userLabelStyle.Render("You") + "\n")
			b.WriteString(textStyle.Width(width).Render(msg.Text))
		case domain.RoleAssistant:
			label := "AskPage"
			if msg.Provider != "" {
				label = msg.Provider.DisplayName()
			}
			b.WriteString(assistantLabelStyle.Render(label) + "\n")
			b.WriteString(m.markdown(msg.Text, width))
		case domain.RoleError:
			b.WriteString(errorStyle.Width(width).Render("Error: " + msg.Text))
		default:
			b.WriteString(m.markdown(msg.Text, width))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) markdown(text string, width int) string {
	if m.renderer == nil {
		return textStyle.Width(width).Render(text)
	}
	out, err := m.renderer.RenderWidth(text, width)
	if err != nil {
		return textStyle.Width(width).Render(text)
	}
	return out
}

// View renders the dialog.
func (m Model) View() string {
	if m.ctrl.State() != dialog.StateOpen {
		lines := []string{
			headerStyle.Render("AskPage"),
			subtitleStyle.Render("Dialog closed. ctrl+t or SIGUSR1 opens it, q or ctrl+c quits."),
		}
		if m.notice != "" {
			lines = append(lines, errorStyle.Render(m.notice))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	sections := []string{m.renderHeader(), m.viewport.View()}
	if palette := m.renderPalette(); palette != "" {
		sections = append(sections, palette)
	}
	input := m.input.View()
	if m.ctrl.Pending() > 0 {
		input = m.spinner.View() + " " + subtitleStyle.Render("thinking...") + "  " + input
	}
	sections = append(sections, inputBoxStyle.Width(m.viewport.Width-2).Render(input))
	sections = append(sections, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	page := m.ctrl.Page()
	title := page.Title
	if title == "" {
		title = page.URL
	}
	if title == "" {
		title = "no page"
	}
	parts := []string{headerStyle.Render("AskPage"), subtitleStyle.Render("  " + title)}
	if sel := page.Selection; sel != "" {
		parts = append(parts, noticeStyle.Render(fmt.Sprintf("  [selection: %s chars]", humanize.Comma(int64(len([]rune(sel)))))))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func (m Model) renderPalette() string {
	menu := m.ctrl.Menu()
	if !menu.Visible {
		return ""
	}
	start := 0
	if menu.Highlighted >= maxPaletteItems {
		start = menu.Highlighted - maxPaletteItems + 1
	}
	end := start + maxPaletteItems
	if end > len(menu.Items) {
		end = len(menu.Items)
	}
	var rows []string
	for i := start; i < end; i++ {
		cmd := menu.Items[i]
		style, prefix := paletteItemStyle, "  "
		if i == menu.Highlighted {
			style, prefix = paletteSelectedStyle, "▸ "
		}
		desc := cmd.Description
		if desc == "" {
			desc = domain.Truncate(strings.ReplaceAll(cmd.Prompt, "\n", " "), 50)
		}
		rows = append(rows, style.Render(prefix+cmd.Trigger)+paletteDescStyle.Render("  "+desc))
	}
	return paletteStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderStatusBar() string {
	settings := m.ctrl.Settings()
	left := fmt.Sprintf("%s · %s", settings.Provider.DisplayName(), settings.ModelFor(settings.Provider))
	if settings.ScreenshotEnabled {
		left += " · screenshot"
	}
	left += fmt.Sprintf(" · %s in history", humanize.Comma(int64(m.ctrl.HistoryLen())))

	if m.notice != "" {
		return statusBarStyle.Render(noticeStyle.Render(m.notice) + "  " + left)
	}
	keys := []string{
		statusKeyStyle.Render("enter") + " ask",
		statusKeyStyle.Render("ctrl+p") + " provider",
		statusKeyStyle.Render("ctrl+y") + " copy",
		statusKeyStyle.Render("esc") + " close",
	}
	return statusBarStyle.Render(left + "  │  " + strings.Join(keys, "  "))
}

// Run starts the dialog program and blocks until the user quits. SIGUSR1
// toggles the dialog where supported.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if signals := toggleSignals(ctx); signals != nil {
		go func() {
			for range signals {
				p.Send(toggleMsg{})
			}
		}()
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
