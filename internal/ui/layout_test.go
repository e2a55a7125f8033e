package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLayout_ContentHeight(t *testing.T) {
	assert.Equal(t, 22, NewLayout(80, 24).ContentHeight())
	assert.Equal(t, 0, NewLayout(80, 1).ContentHeight())
}

func TestLayout_HeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 10)

	header := l.RenderHeader("Notifications", "3 new", "synced")
	assert.Equal(t, 60, lipgloss.Width(header))
	assert.Contains(t, header, "3 new")

	assert.Equal(t, 60, lipgloss.Width(l.RenderHeader("Notifications", "", "idle")))
}

func TestLayout_FrameClipsContent(t *testing.T) {
	l := NewLayout(40, 5)
	content := strings.Repeat("row\n", 10) + "last"

	frame := l.RenderWithFrame("head", content, "status")
	lines := strings.Split(frame, "\n")

	assert.Len(t, lines, 5)
	assert.Contains(t, lines[len(lines)-1], "status")
	assert.NotContains(t, frame, "last")
}
