package notiflist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Title }

// Title returns the notification title for the list.
func (i Item) Title() string { return i.Notification.Title }

// Description returns the notification message.
func (i Item) Description() string { return i.Notification.Message }

// ItemDelegate implements list.ItemDelegate for rendering notifications.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderLine(it.Notification, index == m.Index()))
}

func (d ItemDelegate) renderLine(n model.Notification, isSelected bool) string {
	visual := theme.KindStyle(n.Kind)
	icon := visual.Style().Render(visual.Icon)

	marker := " "
	if !n.Read {
		marker = lipgloss.NewStyle().Foreground(theme.ColorRed).Render("●")
	}

	now := time.Now
	if d.now != nil {
		now = d.now
	}
	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(n.CreatedAt, now()))

	line := fmt.Sprintf("%s %s %s  %s", marker, icon, n.Title, age)
	if n.Message != "" {
		line += lipgloss.NewStyle().Foreground(theme.ColorGray).Render("  " + n.Message)
	}

	switch {
	case isSelected:
		return theme.SelectedItemStyle.Render(line)
	case n.Read:
		return theme.ReadItemStyle.Render(line)
	default:
		return theme.ListItemStyle.Render(line)
	}
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02")
	}
}
