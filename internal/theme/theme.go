package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-sync/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// BadgeStyle renders the unread counter when it is non-zero.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// SectionStyle renders the "Unread" and "Earlier" section titles.
var SectionStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray).
	MarginTop(1)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// ReadItemStyle dims notifications that were already read.
var ReadItemStyle = lipgloss.NewStyle().
	PaddingLeft(2).
	Foreground(ColorGray)

// PanelStyle frames overlays such as the command bar.
var PanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder).
	Padding(0, 1)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle is used for error messages in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// KindVisual is how a notification kind is drawn.
type KindVisual struct {
	Icon  string
	Color lipgloss.AdaptiveColor
}

// Style returns a bold style in the kind's color.
func (v KindVisual) Style() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(v.Color)
}

// defaultKind is used for kinds missing from kindVisuals.
var defaultKind = KindVisual{Icon: "•", Color: ColorGray}

var kindVisuals = map[model.Kind]KindVisual{
	model.KindRequestCreatedAdmin:  {Icon: "✚", Color: ColorBlue},
	model.KindRequestCreatedSystem: {Icon: "⚙", Color: ColorMagenta},
	model.KindRequestApproved:      {Icon: "✔", Color: ColorGreen},
	model.KindRequestRejected:      {Icon: "✖", Color: ColorRed},
	model.KindRequestStatusUpdated: {Icon: "↻", Color: ColorYellow},
}

// KindStyle returns the icon and color for kind. Unknown kinds get a
// neutral bullet.
func KindStyle(kind model.Kind) KindVisual {
	if v, ok := kindVisuals[kind]; ok {
		return v
	}
	return defaultKind
}
