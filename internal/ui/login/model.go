package login

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-sync/internal/theme"
)

// SubmittedMsg carries the credentials entered in the form. An empty
// Token asks the caller to request a development token.
type SubmittedMsg struct {
	UserID string
	Token  string
}

// CancelledMsg is sent when the user aborts the form.
type CancelledMsg struct{}

// fields is shared by every copy of Model so huh's bound pointers stay
// valid across Update calls.
type fields struct {
	userID string
	token  string
}

// Model is the login form shown when no identity is active.
type Model struct {
	form   *huh.Form
	values *fields
	err    string
	width  int
	height int
}

// New creates a login form.
func New(width, height int) Model {
	m := Model{values: &fields{}, width: width, height: height}
	m.form = m.buildForm()
	return m
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("User ID").
				Description("The account whose notifications to follow").
				Value(&m.values.userID).
				Validate(validateUserID),
			huh.NewInput().
				Title("Token").
				Description("Bearer token. Leave empty to request a development token").
				EchoMode(huh.EchoModePassword).
				Value(&m.values.token),
		),
	).WithWidth(m.formWidth())
}

func validateUserID(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("user id is required")
	}
	return nil
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 20 {
		return 20
	}
	if w > 60 {
		return 60
	}
	return w
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update forwards msg to the form and reports completion.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submitted := SubmittedMsg{
			UserID: strings.TrimSpace(m.values.userID),
			Token:  strings.TrimSpace(m.values.token),
		}
		return m, func() tea.Msg { return submitted }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelledMsg{} }
	}

	return m, cmd
}

// Reset clears the form, keeping err for display.
func (m *Model) Reset(err error) tea.Cmd {
	m.values = &fields{}
	m.err = ""
	if err != nil {
		m.err = err.Error()
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// View renders the form.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Log in")

	parts := []string{title, m.form.View()}
	if m.err != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.err))
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(m.formWidth())
}
