package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/status"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionAttach
	ActionKill
	ActionQuit
)

// Entry is one live tmux session shown by the picker.
type Entry struct {
	// SessionName is the tmux session name (aoe_<title>_<short id>).
	SessionName string

	// ID and Title come from the session record; both are empty for a
	// session that has no record.
	ID    string
	Title string

	Tool      string
	Sandboxed bool
	Status    status.Status
}

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	Entry  *Entry
}

// sessionItem implements list.Item for session display
type sessionItem struct {
	entry *Entry
}

func (i sessionItem) Title() string {
	if i.entry.Title != "" {
		return i.entry.Title
	}
	return i.entry.SessionName
}

func (i sessionItem) Description() string {
	tool := i.entry.Tool
	if tool == "" {
		tool = "unknown"
	}
	where := "host"
	if i.entry.Sandboxed {
		where = "sandbox"
	}
	return fmt.Sprintf("%s | %s | %s | %s",
		StatusStyle(i.entry.Status).Render(i.entry.Status.Icon()+" "+i.entry.Status.String()),
		tool,
		where,
		i.entry.SessionName,
	)
}

func (i sessionItem) FilterValue() string {
	return i.entry.Title + " " + i.entry.SessionName
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	statusStyles = map[status.Status]lipgloss.Style{
		status.Idle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		status.Waiting: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		status.Running: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		status.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// StatusStyle returns the colour used to render s.
func StatusStyle(s status.Status) lipgloss.Style {
	if style, ok := statusStyles[s]; ok {
		return style
	}
	return statusStyles[status.Idle]
}

// Model is the bubbletea model for the session picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a new session picker
func NewPicker(entries []*Entry) Model {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = sessionItem{entry: e}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "Agent of Empires - Sessions"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) selected() (*Entry, bool) {
	item, ok := m.list.SelectedItem().(sessionItem)
	if !ok {
		return nil, false
	}
	return item.entry, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if entry, ok := m.selected(); ok {
				m.result = PickerResult{Action: ActionAttach, Entry: entry}
				m.quitting = true
				return m, tea.Quit
			}

		case "d":
			if entry, ok := m.selected(); ok {
				m.result = PickerResult{Action: ActionKill, Entry: entry}
				m.quitting = true
				return m, tea.Quit
			}

		case "q", "esc":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Attach  [d] Kill  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive session picker
func RunPicker(entries []*Entry) (PickerResult, error) {
	if len(entries) == 0 {
		return PickerResult{Action: ActionQuit}, nil
	}

	m := NewPicker(entries)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive listing of the sessions
func SimplePicker(entries []*Entry) string {
	var sb strings.Builder

	sb.WriteString("Agent of Empires - Sessions\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(entries) == 0 {
		sb.WriteString("No sessions running.\n")
		sb.WriteString("Start one with: aoe-ctl new <dir>\n")
		return sb.String()
	}

	for i, e := range entries {
		title := e.Title
		if title == "" {
			title = e.SessionName
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s (%s)\n", i+1, e.Status.Icon(), title, e.Status))
		sb.WriteString(fmt.Sprintf("   tmux: %s\n\n", e.SessionName))
	}

	return sb.String()
}
