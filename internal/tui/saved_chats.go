package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/qanoonbot/qanoonchat/internal/history"
	"github.com/qanoonbot/qanoonchat/internal/logging"
	"github.com/qanoonbot/qanoonchat/internal/models"
)

// FetchFunc loads the saved chats
type FetchFunc func(ctx context.Context) ([]models.SavedChat, error)

// savedChatsLoadedMsg is sent when saved chats are loaded
type savedChatsLoadedMsg struct {
	chats []models.SavedChat
	err   error
}

// SavedChatsModel lists saved chats with a search filter
type SavedChatsModel struct {
	fetch     FetchFunc
	ctx       context.Context
	logger    *zap.Logger
	exportDir string

	// Data
	chats    []models.SavedChat
	filtered []models.SavedChat

	// Navigation
	cursor    int
	search    textinput.Model
	searching bool
	viewing   bool
	detail    viewport.Model

	// State
	loading bool
	notice  string

	// Dimensions
	width  int
	height int
	ready  bool
}

// SavedChatsOptions configures the saved chats screen
type SavedChatsOptions struct {
	Query     string
	ExportDir string
	Logger    *zap.Logger
	Context   context.Context
}

// NewSavedChatsModel creates the saved chats screen
func NewSavedChatsModel(fetch FetchFunc, opts SavedChatsOptions) SavedChatsModel {
	ti := textinput.New()
	ti.Placeholder = "Search saved chats..."
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.SetValue(opts.Query)

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	return SavedChatsModel{
		fetch:     fetch,
		ctx:       ctx,
		logger:    logging.OrNop(opts.Logger),
		exportDir: exportDir,
		search:    ti,
		detail:    viewport.New(0, 0),
		loading:   true,
	}
}

// Init starts loading saved chats
func (m SavedChatsModel) Init() tea.Cmd {
	return m.loadChats()
}

func (m SavedChatsModel) loadChats() tea.Cmd {
	ctx, fetch := m.ctx, m.fetch
	return func() tea.Msg {
		chats, err := fetch(ctx)
		return savedChatsLoadedMsg{chats: chats, err: err}
	}
}

// query returns the search text as typed
func (m SavedChatsModel) query() string {
	return m.search.Value()
}

// applyFilter narrows the list. While the search box is open the list
// only holds chats with a matching message.
func (m *SavedChatsModel) applyFilter() {
	if m.searching {
		m.filtered = history.Matching(m.chats, m.query())
	} else {
		m.filtered = history.Filter(m.chats, m.query())
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// selected returns the chat under the cursor
func (m SavedChatsModel) selected() (models.SavedChat, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return models.SavedChat{}, false
	}
	return m.filtered[m.cursor], true
}

// Update handles messages and updates the model
func (m SavedChatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = max(20, msg.Width-8)
		m.detail.Height = max(5, msg.Height-8)
		m.ready = true
		return m, nil

	case savedChatsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("failed to fetch saved chats", zap.Error(msg.err))
			m.chats = nil
		} else {
			m.chats = msg.chats
		}
		m.applyFilter()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}
		switch {
		case m.viewing:
			return m.updateDetail(msg)
		case m.searching:
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}

	if m.searching {
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m SavedChatsModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m, tea.Quit

	case "up", "k":
		if len(m.filtered) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.filtered) - 1
			}
		}

	case "down", "j":
		if len(m.filtered) > 0 {
			m.cursor++
			if m.cursor >= len(m.filtered) {
				m.cursor = 0
			}
		}

	case "home", "g":
		m.cursor = 0

	case "end", "G":
		m.cursor = max(0, len(m.filtered)-1)

	case "/":
		m.searching = true
		m.notice = ""
		m.applyFilter()
		cmd := m.search.Focus()
		return m, cmd

	case "enter":
		if chat, ok := m.selected(); ok {
			m.viewing = true
			m.detail.SetContent(renderChatDetail(chat))
			m.detail.GotoTop()
		}

	case "e":
		m.export(history.ExportFormatMarkdown)

	case "x":
		m.export(history.ExportFormatJSON)
	}

	return m, nil
}

func (m SavedChatsModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.applyFilter()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m.applyFilter()
	return m, cmd
}

func (m SavedChatsModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.viewing = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// export writes the selected chat to the export directory
func (m *SavedChatsModel) export(format history.ExportFormat) {
	chat, ok := m.selected()
	if !ok {
		return
	}
	path := filepath.Join(m.exportDir, ExportFileName(chat, format))
	if err := history.WriteExport(chat, format, path); err != nil {
		m.logger.Error("failed to export saved chat", zap.Error(err), zap.String("path", path))
		m.notice = "Export failed"
		return
	}
	m.notice = "Exported to " + path
}

// ExportFileName names an exported chat after its creation time
func ExportFileName(chat models.SavedChat, format history.ExportFormat) string {
	stamp := "undated"
	if !chat.CreatedAt.IsZero() {
		stamp = chat.CreatedAt.Local().Format("20060102-150405")
	}
	return "qanoon-chat-" + stamp + format.Extension()
}

// renderChatDetail lists every message of chat with its sender prefix
func renderChatDetail(chat models.SavedChat) string {
	var sb strings.Builder
	sb.WriteString(listHeaderStyle.Render(history.Title(chat)))
	sb.WriteString("\n")
	for _, msg := range chat.Messages {
		label := userLabelStyle.UnsetMarginLeft().Render(msg.Label() + ":")
		if msg.IsBot() {
			label = botLabelStyle.Render(msg.Label() + ":")
		}
		sb.WriteString(label + " " + msg.Text + "\n")
	}
	return sb.String()
}

// View renders the TUI
func (m SavedChatsModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.loading {
		return loadingStyle.Render("  Loading saved chats...")
	}

	contentWidth := max(40, m.width-4)

	if m.viewing {
		return lipgloss.JoinVertical(lipgloss.Left,
			listPanelStyle.Width(contentWidth).Render(m.detail.View()),
			listStatusStyle.Render(renderShortcuts([][2]string{{"Up/Down", "Scroll"}, {"Esc", "Back"}})),
		)
	}

	var sections []string
	sections = append(sections, listHeaderStyle.Render("Saved Chats"))

	if m.searching || m.query() != "" {
		sections = append(sections, m.search.View())
	}

	sections = append(sections, listPanelStyle.Width(contentWidth).Render(m.renderList(contentWidth-6)))

	status := renderShortcuts([][2]string{
		{"Up/Down", "Navigate"},
		{"Enter", "Open"},
		{"/", "Search"},
		{"e", "Export md"},
		{"x", "Export json"},
		{"Esc", "Quit"},
	})
	if m.notice != "" {
		status += "\n" + noticeStyle.Render(m.notice)
	}
	sections = append(sections, listStatusStyle.Render(status))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SavedChatsModel) renderList(width int) string {
	if len(m.filtered) == 0 {
		return hintStyle.Render(history.EmptyMessage(m.query()))
	}

	maxItems := max(3, (m.height-10)/2)
	start := 0
	if m.cursor >= maxItems {
		start = m.cursor - maxItems + 1
	}
	end := min(start+maxItems, len(m.filtered))

	var items []string
	if start > 0 {
		items = append(items, hintStyle.Render("  ..."))
	}
	for i := start; i < end; i++ {
		items = append(items, m.renderItem(i, m.filtered[i], width))
	}
	if end < len(m.filtered) {
		items = append(items, hintStyle.Render("  ..."))
	}
	return strings.Join(items, "\n")
}

func (m SavedChatsModel) renderItem(index int, chat models.SavedChat, width int) string {
	cursor := "  "
	style := listItemStyle
	if index == m.cursor {
		cursor = listCursorStyle.Render("> ")
		style = listSelectedStyle
	}

	line := fmt.Sprintf("%s%s%s", cursor, style.Render(history.Title(chat)),
		listTimeStyle.Render(" - "+history.FormatRelativeTime(chat.CreatedAt)))

	preview := ""
	if len(chat.Messages) > 0 {
		preview = history.Line(chat.Messages[0])
	}
	if r := []rune(preview); len(r) > width-4 && width > 7 {
		preview = string(r[:width-7]) + "..."
	}
	return line + "\n    " + hintStyle.Render(preview)
}

// RunSavedChats starts the saved chats screen and blocks until it exits
func RunSavedChats(fetch FetchFunc, opts SavedChatsOptions) error {
	p := tea.NewProgram(
		NewSavedChatsModel(fetch, opts),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
