package badge

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notification-sync/internal/theme"
)

// Counter is the source of truth the badge reads from.
type Counter interface {
	UnreadCount() int
}

// CountChangedMsg tells the badge that the unread count may have changed.
// The carried count is informational; the badge re-reads its Counter.
type CountChangedMsg struct {
	Count int
}

// Model is the unread counter shown in the header.
type Model struct {
	counter Counter
	count   int
}

// New creates a badge reading from counter.
func New(counter Counter) Model {
	return Model{counter: counter, count: counter.UnreadCount()}
}

// Update refreshes the count on CountChangedMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(CountChangedMsg); ok {
		m.count = m.counter.UnreadCount()
	}
	return m, nil
}

// Count returns the count last read from the Counter.
func (m Model) Count() int {
	return m.count
}

// View renders the badge, or nothing when there is no unread notification.
func (m Model) View() string {
	if m.count == 0 {
		return ""
	}
	return theme.BadgeStyle.Render(fmt.Sprintf("%d new", m.count))
}
