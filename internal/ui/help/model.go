package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-sync/internal/keys"
	"github.com/nhle/notification-sync/internal/theme"
	"github.com/nhle/notification-sync/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// ShortView renders the one-line key hints for the status bar.
func (m Model) ShortView() string {
	h := m.help
	h.ShowAll = false
	return h.View(m.keys)
}

// View renders the full key reference.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	h := m.help
	h.Width = m.width - 4
	h.ShowAll = true

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			h.View(m.keys),
			"",
			m.commandReference(),
		))
}

// commandReference lists what the ":" bar accepts.
func (m Model) commandReference() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Commands")
	usage := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(28)

	var b strings.Builder
	b.WriteString(heading)
	for _, c := range command.Reference {
		b.WriteString("\n")
		b.WriteString(usage.Render(":"+c.Usage) + theme.HelpStyle.Render(c.Desc))
	}
	return b.String()
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
