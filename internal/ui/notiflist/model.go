package notiflist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-sync/internal/keys"
	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/theme"
)

// Source is the store the list renders from.
type Source interface {
	Partitioned() (unread, read []model.Notification)
}

// Filter selects which partition the list shows.
type Filter int

const (
	FilterAll Filter = iota
	FilterUnread
	FilterRead
)

func (f Filter) String() string {
	switch f {
	case FilterUnread:
		return "unread"
	case FilterRead:
		return "read"
	default:
		return "all"
	}
}

// LoadedMsg carries a consistent snapshot of both partitions.
type LoadedMsg struct {
	Unread []model.Notification
	Read   []model.Notification
}

// OpenMsg is sent when the user activates a notification.
type OpenMsg struct {
	ID string
}

// Model is the notification list view.
type Model struct {
	list   list.Model
	source Source
	keys   *keys.KeyMap
	filter Filter
	unread []model.Notification
	read   []model.Notification
	width  int
	height int
}

// New creates a new notification list model.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.SectionStyle

	return Model{
		list:   l,
		source: src,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init loads the first snapshot.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that snapshots the store.
func (m Model) Load() tea.Cmd {
	src := m.source
	return func() tea.Msg {
		unread, read := src.Partitioned()
		return LoadedMsg{Unread: unread, Read: read}
	}
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.unread = msg.Unread
		m.read = msg.Read
		return m, m.list.SetItems(m.items())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Open):
			id, ok := m.SelectedID()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return OpenMsg{ID: id} }

		case key.Matches(msg, m.keys.NextFilter):
			return m, m.SetFilter((m.filter + 1) % 3)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// items builds the list items for the current filter. The unread
// section always precedes the read one.
func (m *Model) items() []list.Item {
	var src []model.Notification
	switch m.filter {
	case FilterUnread:
		src = m.unread
	case FilterRead:
		src = m.read
	default:
		src = make([]model.Notification, 0, len(m.unread)+len(m.read))
		src = append(src, m.unread...)
		src = append(src, m.read...)
	}

	m.list.Title = fmt.Sprintf("Notifications · %s · %d unread", m.filter, len(m.unread))

	items := make([]list.Item, len(src))
	for i, n := range src {
		items[i] = Item{Notification: n}
	}
	return items
}

// SelectedID returns the id of the highlighted notification.
func (m Model) SelectedID() (string, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return "", false
	}
	return it.Notification.ID, true
}

// Filter returns the active filter.
func (m Model) Filter() Filter {
	return m.filter
}

// SetFilter switches the list to f.
func (m *Model) SetFilter(f Filter) tea.Cmd {
	m.filter = f
	m.list.ResetSelected()
	return m.list.SetItems(m.items())
}

// ParseFilter maps "all", "unread" and "read" to a Filter.
func ParseFilter(s string) (Filter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return FilterAll, true
	case "unread":
		return FilterUnread, true
	case "read":
		return FilterRead, true
	}
	return FilterAll, false
}

// View renders the list or an empty state.
func (m Model) View() string {
	if len(m.list.Items()) > 0 {
		return m.list.View()
	}

	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch m.filter {
	case FilterRead:
		return style.Render("Nothing read yet.")
	default:
		return style.Render("You are all caught up.")
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
