package tui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/qanoonbot/qanoonchat/internal/chat"
	"github.com/qanoonbot/qanoonchat/internal/models"
	"github.com/qanoonbot/qanoonchat/internal/render"
	"github.com/qanoonbot/qanoonchat/internal/typing"
)

// Message types for the TUI
type (
	replyMsg struct {
		ticket chat.Ticket
		reply  string
		err    error
	}
	typeTickMsg struct{}
	savedMsg    struct {
		err error
	}
)

// ChatSession is the part of chat.Session the chat screen drives
type ChatSession interface {
	Messages() models.Transcript
	OnboardingVisible() bool
	DismissOnboarding()
	Busy() bool
	Submit(input string) (chat.Ticket, error)
	Request(ctx context.Context, t chat.Ticket) (string, error)
	Deliver(t chat.Ticket, reply string) bool
	Fail(t chat.Ticket, err error)
	Typing() (string, bool)
	Tick() (string, bool)
	Flush()
	SaveChat(ctx context.Context) error
	Close()
}

// Options configures the chat screen
type Options struct {
	// TypingInterval is the delay between revealed characters
	TypingInterval time.Duration
	// Render configures markdown for finished bot replies; Width is set from the window
	Render render.Options
	// Clipboard copies text; defaults to the system clipboard
	Clipboard func(string) error
	// Context bounds every request; defaults to context.Background
	Context context.Context
}

// Model represents the chat screen state
type Model struct {
	session  ChatSession
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
	render   render.Options
	copyText func(string) error

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	waiting bool   // generation request in flight
	saving  bool   // save request in flight
	modal   string // blocking confirmation, empty when none
	notice  string // transient status line
	ready   bool

	// Dimensions
	width  int
	height int
}

// NewChatModel creates the chat screen for session
func NewChatModel(session ChatSession, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask a legal question..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	interval := opts.TypingInterval
	if interval <= 0 {
		interval = typing.DefaultInterval
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	renderOpts := opts.Render
	if renderOpts.Style == "" {
		renderOpts = render.DefaultOptions()
	}

	return Model{
		session:  session,
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
		render:   renderOpts,
		copyText: copyText,
		textarea: ta,
		spinner:  s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// typeTick schedules the next character of the typing animation
func (m Model) typeTick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return typeTickMsg{}
	})
}

// request sends the ticket's prompt without blocking the update loop
func (m Model) request(ticket chat.Ticket) tea.Cmd {
	ctx := m.ctx
	session := m.session
	return func() tea.Msg {
		reply, err := session.Request(ctx, ticket)
		return replyMsg{ticket: ticket, reply: reply, err: err}
	}
}

// save posts the transcript to the save endpoint
func (m Model) save() tea.Cmd {
	ctx := m.ctx
	session := m.session
	return func() tea.Msg {
		return savedMsg{err: session.SaveChat(ctx)}
	}
}

// quit stops in-flight work and exits. A reply being typed is completed
// so it is not lost from the transcript.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.session.Flush()
	m.session.Close()
	m.cancel()
	return m, tea.Quit
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 5
		statusHeight := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - 2
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()
		m.viewport.GotoBottom()

	case tea.KeyMsg:
		if m.modal != "" {
			switch msg.String() {
			case "ctrl+c":
				return m.quit()
			case "enter", "esc", " ":
				m.modal = ""
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			return m.quit()

		case "esc":
			if m.session.OnboardingVisible() {
				m.session.DismissOnboarding()
				m.updateViewport()
				return m, nil
			}
			return m.quit()

		case "ctrl+s":
			if !m.saving {
				m.saving = true
				m.notice = ""
				return m, tea.Batch(m.save(), m.spinner.Tick)
			}
			return m, nil

		case "ctrl+y":
			if last, ok := m.session.Messages().Last(models.SenderBot); ok {
				if err := m.copyText(last.Text); err != nil {
					m.notice = "Could not copy to clipboard"
				} else {
					m.notice = "Copied last reply"
				}
			}
			return m, nil

		case "enter":
			input := m.textarea.Value()
			switch strings.TrimSpace(input) {
			case "/exit", "/quit":
				return m.quit()
			}

			ticket, err := m.session.Submit(input)
			if err != nil {
				// Empty or busy submissions keep the input as typed
				return m, nil
			}

			m.textarea.Reset()
			m.waiting = true
			m.notice = ""
			m.updateViewport()
			m.viewport.GotoBottom()
			return m, tea.Batch(m.request(ticket), m.spinner.Tick)
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.session.Fail(msg.ticket, msg.err)
			break
		}
		if m.session.Deliver(msg.ticket, msg.reply) {
			if _, active := m.session.Typing(); active {
				cmds = append(cmds, m.typeTick())
			}
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case typeTickMsg:
		if _, done := m.session.Tick(); !done {
			cmds = append(cmds, m.typeTick())
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case savedMsg:
		m.saving = false
		if msg.err == nil {
			m.modal = models.MsgChatSaved
		}

	case spinner.TickMsg:
		if m.waiting || m.saving {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if _, ok := msg.(tea.KeyMsg); ok {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4

	if m.modal != "" {
		box := modalStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			modalTextStyle.Render(m.modal),
			"",
			hintStyle.Render("Press Enter to continue"),
		))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	var sections []string

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("Qanoon Bot"),
		hintStyle.Render("  |  "),
		subtitleStyle.Render("legal assistant"),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(header))

	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View()))

	var inputContent string
	switch {
	case m.waiting:
		inputContent = m.spinner.View() + loadingStyle.Render(" Qanoon Bot is thinking...")
	case m.saving:
		inputContent = m.spinner.View() + loadingStyle.Render(" Saving chat...")
	default:
		inputContent = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	status := renderShortcuts([][2]string{
		{"Enter", "Send"},
		{"Ctrl+S", "Save chat"},
		{"Ctrl+Y", "Copy reply"},
		{"Esc", m.escHint()},
	})
	if m.notice != "" {
		status += "  " + noticeStyle.Render(m.notice)
	}
	sections = append(sections, statusBarStyle.Width(contentWidth).Render(status))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) escHint() string {
	if m.session.OnboardingVisible() {
		return "Hide rules"
	}
	return "Quit"
}

// renderOnboarding renders the rules card shown at session start
func (m Model) renderOnboarding(width int) string {
	lines := []string{onboardingTitleStyle.Render("Before you ask")}
	for _, rule := range models.OnboardingRules() {
		lines = append(lines,
			ruleTitleStyle.Render(rule.Title),
			ruleDescStyle.Render("  "+rule.Description),
		)
	}
	lines = append(lines, "", hintStyle.Render("Press Esc to dismiss"))
	return onboardingStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// updateViewport refreshes the viewport content from the session
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	if m.session.OnboardingVisible() {
		content.WriteString(m.renderOnboarding(bubbleWidth))
		content.WriteString("\n")
	}

	opts := m.render.WithWidth(bubbleWidth - 4)
	for _, msg := range m.session.Messages() {
		content.WriteString("\n")
		if msg.IsBot() {
			content.WriteString(botLabelStyle.Render("Qanoon Bot") + "\n")
			content.WriteString(botBubbleStyle.Width(bubbleWidth).Render(render.Message(msg, opts)))
		} else {
			content.WriteString(userLabelStyle.Render("You") + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Text))
		}
		content.WriteString("\n")
	}

	if buffer, active := m.session.Typing(); active {
		content.WriteString("\n")
		content.WriteString(botLabelStyle.Render("Qanoon Bot") + "\n")
		content.WriteString(botBubbleStyle.Width(bubbleWidth).Render(buffer + typingCursorStyle.Render("|")))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat screen and blocks until it exits
func RunChat(session *chat.Session, opts Options) error {
	m := NewChatModel(session, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}

var _ ChatSession = (*chat.Session)(nil)
