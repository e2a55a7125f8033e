package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-sync/internal/theme"
)

// Layout splits the terminal into header, content and status bar rows.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left between header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 0)
}

// RenderHeader renders the title, the unread badge right after it, and
// the sync status flush right. An empty badge takes no space.
func (l Layout) RenderHeader(title, badge, syncStatus string) string {
	left := theme.HeaderStyle.Render(title)
	if badge != "" {
		left = lipgloss.JoinHorizontal(lipgloss.Top, left, badge)
	}
	right := theme.HeaderStyle.Render(syncStatus)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, fill(theme.HeaderStyle, l.Width-lipgloss.Width(left)-lipgloss.Width(right)), right)
}

// RenderStatusBar renders the bottom bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, fill(theme.StatusBarStyle, l.Width-lipgloss.Width(rendered)))
}

// RenderWithFrame stacks header, content and status bar. Content taller
// than ContentHeight is cut so the status bar stays on screen.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	if h := l.ContentHeight(); h > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > h {
			content = strings.Join(lines[:h], "\n")
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// fill returns width cells painted with style's background.
func fill(style lipgloss.Style, width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Background(style.GetBackground()).
		Render(strings.Repeat(" ", width))
}
