package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-sync/internal/theme"
)

// Name identifies a command the bar understands.
type Name string

const (
	CmdReadAll  Name = "read-all"
	CmdRefresh  Name = "refresh"
	CmdFilter   Name = "filter"
	CmdOpen     Name = "open"
	CmdSettings Name = "settings"
	CmdLogout   Name = "logout"
	CmdQuit     Name = "quit"
)

var known = []Name{CmdReadAll, CmdRefresh, CmdFilter, CmdOpen, CmdSettings, CmdLogout, CmdQuit}

// aliases maps short forms to commands.
var aliases = map[string]Name{
	"ra": CmdReadAll,
	"r":  CmdRefresh,
	"f":  CmdFilter,
	"o":  CmdOpen,
	"q":  CmdQuit,
}

// Reference describes each command for the help overlay.
var Reference = []struct {
	Usage string
	Desc  string
}{
	{"read-all, ra", "mark every notification read"},
	{"refresh, r", "fetch notifications now"},
	{"filter all|unread|read, f", "switch the list filter"},
	{"open <id>, o", "open a notification by id"},
	{"settings", "edit service URL and poll interval"},
	{"logout", "end the session"},
	{"quit, q", "exit"},
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name Name
	Args []string
}

// CancelledMsg is emitted when the bar is dismissed.
type CancelledMsg struct{}

// Parse splits a command line into a CommandMsg.
func Parse(line string) (CommandMsg, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandMsg{}, fmt.Errorf("empty command")
	}

	word := strings.ToLower(fields[0])
	name, ok := aliases[word]
	if !ok {
		name = Name(word)
	}
	for _, k := range known {
		if k == name {
			return CommandMsg{Name: name, Args: fields[1:]}, nil
		}
	}
	return CommandMsg{}, fmt.Errorf("unknown command %q", fields[0])
}

// Model is the command bar.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// New creates a new command bar model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "read-all | refresh | filter unread | open <id> | settings | logout"
	ti.Prompt = ": "
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.input.Reset()
			m.err = ""
			return m, func() tea.Msg { return CancelledMsg{} }

		case "enter":
			line := m.input.Value()
			parsed, err := Parse(line)
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.input.Reset()
			m.err = ""
			return m, func() tea.Msg { return parsed }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command bar.
func (m Model) View() string {
	parts := []string{m.input.View()}
	if m.err != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.err))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command bar dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur releases keyboard focus.
func (m *Model) Blur() {
	m.input.Blur()
}
