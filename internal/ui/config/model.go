package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-sync/internal/keys"
	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/theme"
)

// probeTimeout bounds the connection test.
const probeTimeout = 10 * time.Second

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeForm           ConfigMode = iota // Editing settings
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
)

// Prober checks that a notification service answers at baseURL.
type Prober func(ctx context.Context, baseURL string) error

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg is sent after the settings were written to disk.
type ConfigSavedMsg struct {
	Config model.AppConfig
}

// validateResultMsg carries the outcome of test-then-save.
type validateResultMsg struct {
	cfg model.AppConfig
	err error
}

// fields is shared by every copy of Model so huh's bound pointers stay
// valid across Update calls.
type fields struct {
	baseURL  string
	interval string
}

// Model edits the service URL and poll interval and persists them.
type Model struct {
	mode   ConfigMode
	path   string
	cfg    model.AppConfig
	probe  Prober
	keys   *keys.KeyMap
	form   *huh.Form
	values *fields

	spinner    spinner.Model
	validError error
	statusMsg  string

	width  int
	height int
}

// New creates a settings view for the config file at path, prefilled
// with cfg. A nil probe skips the connection test.
func New(path string, cfg model.AppConfig, probe Prober, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	m := Model{
		path:    path,
		cfg:     cfg,
		probe:   probe,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
	m.resetForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case validateResultMsg:
		m.mode = ModeValidateResult
		m.validError = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Settings saved to " + m.path
		saved := msg.cfg
		return m, func() tea.Msg { return ConfigSavedMsg{Config: saved} }

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			// Only allow escape during validation
			if key.Matches(msg, m.keys.Back) {
				m.mode = ModeForm
				return m, m.resetForm()
			}
			return m, nil
		case ModeValidateResult:
			return m.handleValidateResultKeys(msg)
		}
		if key.Matches(msg, m.keys.Back) {
			return m, done
		}
	}

	if m.mode != ModeForm {
		return m, nil
	}
	return m.updateForm(msg)
}

func done() tea.Msg { return ConfigDoneMsg{} }

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		cfg, err := m.candidate()
		if err != nil {
			m.statusMsg = err.Error()
			return m, m.resetForm()
		}
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validateAndSave(cfg))
	case huh.StateAborted:
		return m, done
	}

	return m, cmd
}

// handleValidateResultKeys processes key events on the validation result screen.
func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		if m.validError == nil {
			return m, done
		}
		m.mode = ModeForm
		m.validError = nil
		return m, m.resetForm()
	case "r":
		if m.validError != nil {
			cfg, err := m.candidate()
			if err != nil {
				return m, nil
			}
			m.mode = ModeValidating
			return m, tea.Batch(m.spinner.Tick, m.validateAndSave(cfg))
		}
	}
	return m, nil
}

// candidate applies the form values to a copy of the current config.
func (m Model) candidate() (model.AppConfig, error) {
	cfg := m.cfg
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.values.baseURL), "/")

	secs, err := strconv.Atoi(strings.TrimSpace(m.values.interval))
	if err != nil {
		return cfg, fmt.Errorf("poll interval: %w", err)
	}
	cfg.Poll.IntervalSec = secs

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validateAndSave tests the connection, then writes cfg if it passed.
func (m Model) validateAndSave(cfg model.AppConfig) tea.Cmd {
	probe := m.probe
	path := m.path
	return func() tea.Msg {
		if probe != nil {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()

			if err := probe(ctx, cfg.API.BaseURL); err != nil {
				return validateResultMsg{err: err}
			}
		}

		if err := model.SaveConfig(path, &cfg); err != nil {
			return validateResultMsg{err: fmt.Errorf("connection OK but save failed: %w", err)}
		}
		return validateResultMsg{cfg: cfg}
	}
}

// resetForm rebuilds the form from the current config.
func (m *Model) resetForm() tea.Cmd {
	m.values = &fields{
		baseURL:  m.cfg.API.BaseURL,
		interval: strconv.Itoa(m.cfg.Poll.IntervalSec),
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Service URL").
				Description("Base URL of the notification API").
				Value(&m.values.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Poll interval (seconds)").
				Description("Takes effect the next time notifyctl starts").
				Value(&m.values.interval).
				Validate(validateInterval),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// --- View ---

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeValidating:
		return style.Render(fmt.Sprintf(
			"%s Testing connection...\n\nPress esc to cancel.",
			m.spinner.View(),
		))
	case ModeValidateResult:
		return style.Render(m.viewValidateResult())
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Settings")

	parts := []string{title, m.form.View()}
	if m.statusMsg != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true).
			Render(m.statusMsg))
	}
	parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorGray).Render("enter next | esc back"))
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewValidateResult() string {
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		return errStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("r retry | enter/esc edit")
	}

	okStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorGreen)
	return okStyle.Render("Connection successful") + "\n\n" +
		m.statusMsg + "\n\n" +
		lipgloss.NewStyle().Foreground(theme.ColorGray).
			Render("enter/esc back")
}

// Mode returns the current mode.
func (m Model) Mode() ConfigMode {
	return m.mode
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., http://localhost:8086/api/v1)")
	}
	return nil
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("interval must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}
