// Package dialog holds the interactive question dialog as a state machine.
// The terminal view drives it with input changes and key presses and renders
// whatever the controller exposes; it never keeps dialog state of its own.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/askpage-go/internal/application/command"
	"github.com/doeshing/askpage-go/internal/application/history"
	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// State is the dialog visibility.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Key is a navigation key the controller reacts to. Printable input goes
// through SetInput.
type Key int

const (
	KeyEnter Key = iota
	KeyTab
	KeyUp
	KeyDown
	KeyEscape
)

// Settings is the part of the settings service the dialog uses.
type Settings interface {
	Load(ctx context.Context) (domain.Settings, error)
	Interpreter(ctx context.Context) (*command.Interpreter, error)
	ToggleScreenshot(ctx context.Context) (bool, error)
	SwitchProvider(ctx context.Context) (domain.ProviderID, error)
}

// Options wires a Controller. Page and Screenshots are optional.
type Options struct {
	Settings    Settings
	Store       ports.KeyValueStore
	Asker       ports.Asker
	Page        ports.PageSource
	Screenshots ports.ScreenshotCapturer
	Logger      ports.Logger
	Now         func() time.Time
}

// Request is a question ready to be sent. It is tagged with the session that
// produced it so a reply arriving after the dialog closed can be dropped.
type Request struct {
	Generation uint64
	Provider   domain.ProviderID
	Ask        domain.AskRequest
	Screenshot bool
}

// Reply is the outcome of Execute.
type Reply struct {
	Generation uint64
	Provider   domain.ProviderID
	Answer     string
	Err        error
	// Notice reports a non-fatal problem, such as a failed screenshot.
	Notice string
}

// Menu is the visible part of the command suggestion menu.
type Menu struct {
	Items       []domain.Command
	Highlighted int
	Visible     bool
}

// Controller is the dialog state machine. It is not safe for concurrent
// use; only Execute may run off the UI goroutine.
type Controller struct {
	opts Options

	state      State
	generation uint64
	session    *session
}

type session struct {
	generation  uint64
	settings    domain.Settings
	interpreter *command.Interpreter
	history     *history.History
	page        domain.PageSnapshot

	input       string
	suggestions []domain.Command
	highlighted int
	menuVisible bool

	transcript []domain.Message
	pending    int
}

// New returns a closed controller.
func New(opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Controller{opts: opts}
}

// State returns the current visibility.
func (c *Controller) State() State {
	return c.state
}

// Toggle opens a closed dialog and closes an open one. Opening loads the
// history, settings and commands and captures the page and selection; if any
// of that fails the dialog stays closed.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.state == StateOpen {
		c.close()
		return nil
	}
	return c.open(ctx)
}

func (c *Controller) open(ctx context.Context) error {
	if c.opts.Settings == nil || c.opts.Store == nil || c.opts.Asker == nil {
		return errors.New("dialog.Controller dependencies not satisfied")
	}
	settings, err := c.opts.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	interpreter, err := c.opts.Settings.Interpreter(ctx)
	if err != nil {
		return fmt.Errorf("load commands: %w", err)
	}
	hist, err := history.Load(ctx, c.opts.Store)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	var page domain.PageSnapshot
	if c.opts.Page != nil {
		if page, err = c.opts.Page.Snapshot(ctx); err != nil {
			return err
		}
	}

	c.generation++
	c.session = &session{
		generation:  c.generation,
		settings:    settings,
		interpreter: interpreter,
		history:     hist,
		page:        page,
	}
	c.state = StateOpen
	c.opts.Logger.Debug("dialog opened", map[string]interface{}{
		"generation": c.generation,
		"provider":   settings.Provider,
		"history":    hist.Len(),
		"selection":  len([]rune(page.Selection)),
	})
	c.system(c.welcome())
	return nil
}

func (c *Controller) close() {
	if c.session != nil && c.session.pending > 0 {
		c.opts.Logger.Debug("dialog closed with pending requests", map[string]interface{}{
			"pending": c.session.pending,
		})
	}
	c.session = nil
	c.state = StateClosed
}

func (c *Controller) welcome() string {
	var b strings.Builder
	if sel := c.session.page.Selection; sel != "" {
		fmt.Fprintf(&b, "**Selection detected** (%s characters)\n\nQuestions will focus on the selected text.\n\n",
			humanize.Comma(int64(len([]rune(sel)))))
	} else {
		b.WriteString("Ask anything about this page.\n\n")
	}
	b.WriteString("**Commands:**\n")
	for _, cmd := range c.session.interpreter.Commands() {
		desc := cmd.Description
		if desc == "" {
			desc = domain.Truncate(cmd.Prompt, 40)
		}
		fmt.Fprintf(&b, "- `%s` %s\n", cmd.Trigger, desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Input returns the current input text.
func (c *Controller) Input() string {
	if c.session == nil {
		return ""
	}
	return c.session.input
}

// SetInput replaces the input text and refreshes the suggestion menu. The
// menu shows when v starts with "/" and at least one trigger matches.
// Editing parks the history cursor back on fresh input.
func (c *Controller) SetInput(v string) {
	if c.session == nil {
		return
	}
	s := c.session
	s.input = v
	s.history.Reset()
	s.suggestions = s.interpreter.Suggest(v)
	s.highlighted = 0
	s.menuVisible = len(s.suggestions) > 0
}

// Menu returns the suggestion menu.
func (c *Controller) Menu() Menu {
	if c.session == nil || !c.session.menuVisible {
		return Menu{}
	}
	return Menu{
		Items:       append([]domain.Command(nil), c.session.suggestions...),
		Highlighted: c.session.highlighted,
		Visible:     true,
	}
}

// HandleKey applies a navigation key. It returns a Request when the key
// submitted a question that needs a provider call.
func (c *Controller) HandleKey(ctx context.Context, key Key) *Request {
	if c.session == nil {
		return nil
	}
	s := c.session

	if s.menuVisible {
		n := len(s.suggestions)
		switch key {
		case KeyDown:
			s.highlighted = (s.highlighted + 1) % n
		case KeyUp:
			s.highlighted = (s.highlighted - 1 + n) % n
		case KeyEnter, KeyTab:
			s.input = s.suggestions[s.highlighted].Trigger
			c.hideMenu()
			return c.Submit(ctx)
		case KeyEscape:
			c.hideMenu()
		}
		return nil
	}

	switch key {
	case KeyEnter:
		return c.Submit(ctx)
	case KeyUp:
		if v, ok := s.history.Prev(); ok {
			s.input = v
		}
	case KeyDown:
		if v, ok := s.history.Next(); ok {
			s.input = v
		}
	case KeyEscape:
		c.close()
	}
	return nil
}

func triggers(cmds []domain.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, cmd.Trigger)
	}
	return out
}

func (c *Controller) hideMenu() {
	c.session.menuVisible = false
	c.session.suggestions = nil
	c.session.highlighted = 0
}

// Submit interprets the current input. Local commands are handled here;
// questions are appended to the history before the Request is returned.
func (c *Controller) Submit(ctx context.Context) *Request {
	if c.session == nil {
		return nil
	}
	s := c.session
	c.hideMenu()
	raw := strings.TrimSpace(s.input)
	if raw == "" {
		return nil
	}
	s.input = ""

	result := s.interpreter.Interpret(raw, command.Context{HasSelection: s.page.Selection != ""})
	switch result.Kind {
	case command.KindClearHistory:
		if err := s.history.Clear(ctx); err != nil {
			c.fail(err)
			return nil
		}
		s.transcript = nil
		c.system("Prompt history cleared.")
		return nil
	case command.KindToggleFlag:
		c.toggleFlag(ctx, result.Flag)
		return nil
	case command.KindUnknownCommand:
		c.fail(domain.NewUnknownCommand(result.Raw, triggers(s.interpreter.Commands())))
		return nil
	}

	if err := s.history.Append(ctx, result.Question); err != nil {
		c.fail(err)
		return nil
	}
	c.addMessage(domain.RoleUser, result.Question)
	s.pending++

	return &Request{
		Generation: s.generation,
		Provider:   s.settings.Provider,
		Screenshot: s.settings.ScreenshotEnabled && c.opts.Screenshots != nil,
		Ask: domain.AskRequest{
			Question:  result.Question,
			Selection: s.page.Selection,
			PageText:  s.page.Text,
			PageURL:   s.page.URL,
		},
	}
}

func (c *Controller) toggleFlag(ctx context.Context, flag string) {
	if flag != domain.FlagScreenshot {
		c.fail(fmt.Errorf("unknown flag %q", flag))
		return
	}
	enabled, err := c.opts.Settings.ToggleScreenshot(ctx)
	if err != nil {
		c.fail(err)
		return
	}
	c.session.settings.ScreenshotEnabled = enabled
	if enabled {
		if c.opts.Screenshots == nil {
			c.system("Screenshot enabled, but no screenshot source is configured for this page.")
			return
		}
		c.system("Screenshot enabled. The page image is sent with Gemini questions.")
		return
	}
	c.system("Screenshot disabled.")
}

// Execute performs the provider call for req. It reads no session state and
// may run on any goroutine.
func (c *Controller) Execute(ctx context.Context, req *Request) Reply {
	reply := Reply{Generation: req.Generation, Provider: req.Provider}
	ask := req.Ask
	if req.Screenshot && c.opts.Screenshots != nil {
		shot, err := c.opts.Screenshots.Capture(ctx)
		if err != nil {
			c.opts.Logger.Warn("screenshot capture failed", map[string]interface{}{"error": err.Error()})
			reply.Notice = "Screenshot failed, asking without it: " + err.Error()
		} else {
			ask.Screenshot = &shot
		}
	}
	reply.Answer, reply.Err = c.opts.Asker.Ask(ctx, ask)
	return reply
}

// Deliver adds a reply to the transcript. Replies from a session that has
// since been closed are discarded and Deliver returns false.
func (c *Controller) Deliver(reply Reply) bool {
	if c.state != StateOpen || c.session == nil || c.session.generation != reply.Generation {
		c.opts.Logger.Debug("stale reply discarded", map[string]interface{}{"generation": reply.Generation})
		return false
	}
	s := c.session
	if s.pending > 0 {
		s.pending--
	}
	if reply.Notice != "" {
		c.system(reply.Notice)
	}
	switch {
	case domain.IsCode(reply.Err, domain.ErrCodeMalformedResponse):
		c.opts.Logger.Warn("malformed provider response", map[string]interface{}{"error": reply.Err.Error()})
		c.appendFrom(domain.RoleAssistant, domain.FallbackAnswer, reply.Provider)
	case reply.Err != nil:
		c.fail(reply.Err)
	case strings.TrimSpace(reply.Answer) == "":
		c.appendFrom(domain.RoleAssistant, domain.FallbackAnswer, reply.Provider)
	default:
		c.appendFrom(domain.RoleAssistant, reply.Answer, reply.Provider)
	}
	return true
}

// SwitchProvider flips the active provider between Gemini and OpenAI.
func (c *Controller) SwitchProvider(ctx context.Context) (domain.ProviderID, error) {
	next, err := c.opts.Settings.SwitchProvider(ctx)
	if err != nil {
		if c.session != nil {
			c.fail(err)
		}
		return "", err
	}
	if c.session == nil {
		return next, nil
	}
	settings, err := c.opts.Settings.Load(ctx)
	if err != nil {
		c.fail(err)
		return next, nil
	}
	c.session.settings = settings
	msg := fmt.Sprintf("Switched to %s (%s).", next.DisplayName(), settings.ModelFor(next))
	if !settings.HasKeyFor(next) {
		msg += " No API key is stored for it yet."
	}
	c.system(msg)
	return next, nil
}

// Transcript returns a copy of the session messages.
func (c *Controller) Transcript() []domain.Message {
	if c.session == nil {
		return nil
	}
	return append([]domain.Message(nil), c.session.transcript...)
}

// LastAnswer returns the newest assistant message text.
func (c *Controller) LastAnswer() (string, bool) {
	if c.session == nil {
		return "", false
	}
	for i := len(c.session.transcript) - 1; i >= 0; i-- {
		if m := c.session.transcript[i]; m.Role == domain.RoleAssistant {
			return m.Text, true
		}
	}
	return "", false
}

// Pending returns the number of requests awaiting a reply.
func (c *Controller) Pending() int {
	if c.session == nil {
		return 0
	}
	return c.session.pending
}

// Settings returns the session's settings snapshot.
func (c *Controller) Settings() domain.Settings {
	if c.session == nil {
		return domain.Settings{}
	}
	return c.session.settings
}

// Page returns the page captured when the dialog opened.
func (c *Controller) Page() domain.PageSnapshot {
	if c.session == nil {
		return domain.PageSnapshot{}
	}
	return c.session.page
}

// HistoryLen returns the number of stored questions.
func (c *Controller) HistoryLen() int {
	if c.session == nil {
		return 0
	}
	return c.session.history.Len()
}

func (c *Controller) system(text string) {
	c.addMessage(domain.RoleSystem, text)
}

func (c *Controller) fail(err error) {
	c.opts.Logger.Debug("dialog error", map[string]interface{}{
		"code":  domain.CodeOf(err),
		"error": err.Error(),
	})
	c.addMessage(domain.RoleError, err.Error())
}

func (c *Controller) addMessage(role domain.Role, text string) {
	c.appendFrom(role, text, "")
}

func (c *Controller) appendFrom(role domain.Role, text string, provider domain.ProviderID) {
	if c.session == nil {
		return
	}
	c.session.transcript = append(c.session.transcript, domain.Message{
		Role:      role,
		Text:      text,
		Provider:  provider,
		CreatedAt: c.opts.Now(),
	})
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}
