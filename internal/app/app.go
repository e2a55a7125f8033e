package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/notification-sync/internal/api"
	"github.com/nhle/notification-sync/internal/keys"
	"github.com/nhle/notification-sync/internal/model"
	appsync "github.com/nhle/notification-sync/internal/sync"
	"github.com/nhle/notification-sync/internal/theme"
	"github.com/nhle/notification-sync/internal/ui"
	"github.com/nhle/notification-sync/internal/ui/badge"
	"github.com/nhle/notification-sync/internal/ui/command"
	"github.com/nhle/notification-sync/internal/ui/config"
	"github.com/nhle/notification-sync/internal/ui/detail"
	helpview "github.com/nhle/notification-sync/internal/ui/help"
	"github.com/nhle/notification-sync/internal/ui/login"
	"github.com/nhle/notification-sync/internal/ui/notiflist"
)

// requestTimeout bounds mutations and manual refreshes started from the UI.
const requestTimeout = 15 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewLogin
	ViewSettings
	ViewCommand
)

// IdentityStore persists the logged-in identity between runs.
type IdentityStore interface {
	SaveIdentity(identity model.Identity) error
	DeleteIdentity() error
}

// TokenIssuer mints a token for a user id, for development logins.
type TokenIssuer interface {
	IssueToken(ctx context.Context, userID string) (string, error)
}

// Options are the collaborators of the root model.
type Options struct {
	Engine     *appsync.Engine
	Identities IdentityStore
	Issuer     TokenIssuer
	Logger     *zap.Logger

	// ConfigPath and Config back the settings view. An empty ConfigPath
	// disables it. Probe tests a service URL before it is saved.
	ConfigPath string
	Config     model.AppConfig
	Probe      config.Prober

	// DriftInterval is how often the badge asks the service for its
	// unread count between full refreshes. Zero disables the check.
	DriftInterval time.Duration
}

// countChangedMsg relays a bridge emission into the update loop.
type countChangedMsg struct {
	count int
}

// openedMsg is the outcome of activating a notification.
type openedMsg struct {
	id  string
	ref string
	err error
}

// markAllDoneMsg is the outcome of mark all read.
type markAllDoneMsg struct {
	err error
}

// refreshDoneMsg is the outcome of a manual refresh.
type refreshDoneMsg struct {
	err error
}

// driftTickMsg schedules the next server count check.
type driftTickMsg struct{}

// loggedInMsg is the outcome of the login form.
type loggedInMsg struct {
	identity model.Identity
	err      error
}

// Model is the root Bubble Tea model. The header badge and the list are
// independent surfaces over the engine's store; they learn about count
// changes through the engine's bridge.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	engine     *appsync.Engine
	identities IdentityStore
	issuer     TokenIssuer
	logger     *zap.Logger
	drift      time.Duration

	badge     badge.Model
	list      notiflist.Model
	detail    detail.Model
	helpView  helpview.Model
	loginView login.Model
	settings  config.Model
	cmdBar    command.Model

	configPath string

	counts      chan int
	unsubscribe func()

	ready     bool
	statusMsg string
	errMsg    string
}

// New creates the root model. The engine may already be active, in which
// case the list view is shown; otherwise the login form is.
func New(opts Options) Model {
	km := keys.DefaultKeyMap()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	counts := make(chan int, 1)
	unsubscribe := opts.Engine.Bridge().Subscribe(func(count int) {
		relayLatest(counts, count)
	})

	view := ViewList
	if opts.Engine.Identity().IsZero() {
		view = ViewLogin
	}

	return Model{
		currentView: view,
		keys:        km,
		engine:      opts.Engine,
		identities:  opts.Identities,
		issuer:      opts.Issuer,
		logger:      logger,
		drift:       opts.DriftInterval,
		badge:       badge.New(opts.Engine.Store()),
		list:        notiflist.New(opts.Engine.Store(), km, 80, 22),
		detail:      detail.New(km, 80, 22),
		helpView:    helpview.New(km, 80, 22),
		loginView:   login.New(80, 22),
		settings:    config.New(opts.ConfigPath, opts.Config, opts.Probe, km, 80, 22),
		cmdBar:      command.New(80, 22),
		configPath:  opts.ConfigPath,
		counts:      counts,
		unsubscribe: unsubscribe,
	}
}

// relayLatest hands count to the update loop without ever blocking the
// emitter. When the loop is behind, an older pending count is replaced.
func relayLatest(ch chan int, count int) {
	for {
		select {
		case ch <- count:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Init starts listening on the bridge and the poller.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.waitForCount(),
		m.list.Init(),
		m.scheduleDrift(),
	}
	if m.currentView == ViewLogin {
		cmds = append(cmds, m.loginView.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.list.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.loginView.SetSize(w, h)
		m.settings.SetSize(w, h)
		m.cmdBar.SetSize(w, h)
		return m.updateActiveView(msg)

	case countChangedMsg:
		m.badge, _ = m.badge.Update(badge.CountChangedMsg{Count: msg.count})
		m.syncDetail()
		return m, tea.Batch(m.list.Load(), m.waitForCount())

	case notiflist.LoadedMsg:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case notiflist.OpenMsg:
		return m, m.openNotification(msg.ID)

	case openedMsg:
		switch {
		case msg.err != nil && msg.ref != "":
			m.errMsg = fmt.Sprintf("opened %s, but marking read failed: %v", msg.ref, msg.err)
		case msg.err != nil:
			m.errMsg = fmt.Sprintf("marking read failed: %v", msg.err)
		case msg.ref != "":
			m.errMsg = ""
			m.statusMsg = "opened " + msg.ref
		default:
			m.errMsg = ""
		}
		if n, ok := m.engine.Store().Get(msg.id); ok {
			m.detail.SetNotification(n)
			m.currentView = ViewDetail
		}
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, m.list.Load()

	case markAllDoneMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("mark all read failed: %v", msg.err)
		} else {
			m.errMsg = ""
			m.statusMsg = "all caught up"
		}
		return m, nil

	case refreshDoneMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("refresh failed: %v", msg.err)
		}
		return m, nil

	case driftTickMsg:
		return m, tea.Batch(m.checkDrift(), m.scheduleDrift())

	case login.SubmittedMsg:
		return m, m.login(msg.UserID, msg.Token)

	case login.CancelledMsg:
		return m, m.quit()

	case loggedInMsg:
		if msg.err != nil {
			return m, m.loginView.Reset(msg.err)
		}
		m.engine.Activate(msg.identity)
		m.currentView = ViewList
		m.errMsg = ""
		m.statusMsg = "logged in as " + msg.identity.UserID
		return m, m.list.Load()

	case config.ConfigDoneMsg:
		m.currentView = ViewList
		return m, nil

	case config.ConfigSavedMsg:
		m.statusMsg = "settings saved, poll interval applies on next start"
		return m, nil

	case command.CommandMsg:
		m.cmdBar.Blur()
		m.currentView = m.previousView
		return m.runCommand(msg)

	case command.CancelledMsg:
		m.cmdBar.Blur()
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if m.currentView == ViewLogin || m.currentView == ViewSettings || m.currentView == ViewCommand {
			if msg.String() == "ctrl+c" {
				return m, m.quit()
			}
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.quit()

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.statusMsg = "refreshing..."
			return m, m.refresh()

		case key.Matches(msg, m.keys.MarkAll):
			return m, m.markAllRead()

		case key.Matches(msg, m.keys.Settings):
			return m.openSettings()

		case key.Matches(msg, m.keys.Command):
			if m.currentView == ViewHelp {
				break
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.cmdBar.Focus()

		case key.Matches(msg, m.keys.Logout):
			cmd := m.logout()
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	case ViewCommand:
		m.cmdBar, cmd = m.cmdBar.Update(msg)
	}

	return m, cmd
}

// openSettings shows the settings form when a config path is known.
func (m Model) openSettings() (tea.Model, tea.Cmd) {
	if m.configPath == "" {
		m.statusMsg = "settings unavailable without a config file"
		return m, nil
	}
	m.currentView = ViewSettings
	return m, m.settings.Init()
}

// runCommand executes a command bar entry.
func (m Model) runCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	arg := ""
	if len(c.Args) > 0 {
		arg = c.Args[0]
	}

	switch c.Name {
	case command.CmdReadAll:
		return m, m.markAllRead()
	case command.CmdRefresh:
		m.statusMsg = "refreshing..."
		return m, m.refresh()
	case command.CmdFilter:
		f, ok := notiflist.ParseFilter(arg)
		if !ok {
			m.errMsg = fmt.Sprintf("unknown filter %q", arg)
			return m, nil
		}
		m.currentView = ViewList
		return m, m.list.SetFilter(f)
	case command.CmdOpen:
		if arg == "" {
			m.errMsg = "open needs a notification id"
			return m, nil
		}
		return m, m.openNotification(arg)
	case command.CmdSettings:
		return m.openSettings()
	case command.CmdLogout:
		cmd := m.logout()
		return m, cmd
	case command.CmdQuit:
		return m, m.quit()
	}
	return m, nil
}

// syncDetail re-reads the open notification so its read state follows
// the store. It returns to the list when the record is gone.
func (m *Model) syncDetail() {
	if m.currentView != ViewDetail {
		return
	}
	id := m.detail.ID()
	if n, ok := m.engine.Store().Get(id); ok {
		m.detail.SetNotification(n)
		return
	}
	m.currentView = ViewList
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Notifications"
	if id := m.engine.Identity(); !id.IsZero() {
		title += " · " + id.UserID
	}

	header := m.layout.RenderHeader(title, m.badge.View(), m.syncStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints())
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewDetail:
		return m.detail.View()
	case ViewLogin:
		return m.loginView.View()
	case ViewSettings:
		return m.settings.View()
	case ViewCommand:
		below := m.list.View()
		if m.previousView == ViewDetail {
			below = m.detail.View()
		}
		return lipgloss.JoinVertical(lipgloss.Left, m.cmdBar.View(), below)
	default:
		return m.list.View()
	}
}

// syncStatus describes the poller state for the header.
func (m Model) syncStatus() string {
	if m.engine.Identity().IsZero() {
		return "logged out"
	}

	status := m.engine.Poller().Status()
	switch status.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		if api.IsAuthError(status.Error) {
			return "⚠ session rejected, press L to log in"
		}
		return "⚠ offline"
	}
	if status.LastSync.IsZero() {
		return "idle"
	}
	return "synced " + status.LastSync.Format("15:04:05")
}

// keyHints returns the status bar text.
func (m Model) keyHints() string {
	if m.errMsg != "" {
		return theme.ErrorStyle.Render(m.errMsg)
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help"
	case ViewDetail:
		if m.statusMsg != "" {
			return m.statusMsg + " | esc back | ? help"
		}
		return "esc back | ? help"
	case ViewLogin:
		return "enter next | ctrl+c quit"
	case ViewSettings:
		return "esc back | ctrl+c quit"
	case ViewCommand:
		return "enter run | esc cancel"
	}
	if m.statusMsg != "" {
		return m.statusMsg + " | " + m.helpView.ShortView()
	}
	return m.helpView.ShortView()
}

// waitForCount returns a command that blocks until the bridge emits.
func (m Model) waitForCount() tea.Cmd {
	ch := m.counts
	return func() tea.Msg {
		return countChangedMsg{count: <-ch}
	}
}

// scheduleDrift arms the next server count check.
func (m Model) scheduleDrift() tea.Cmd {
	if m.drift <= 0 {
		return nil
	}
	return tea.Tick(m.drift, func(time.Time) tea.Msg { return driftTickMsg{} })
}

// checkDrift asks the service for its unread count. A mismatch makes the
// engine refresh in the background, which reaches the badge through the
// bridge.
func (m Model) checkDrift() tea.Cmd {
	engine := m.engine
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if _, err := engine.ServerUnreadCount(ctx); err != nil &&
			!errors.Is(err, appsync.ErrNotActive) && !errors.Is(err, appsync.ErrStaleIdentity) {
			logger.Debug("unread count check failed", zap.Error(err))
		}
		return nil
	}
}

func (m Model) openNotification(id string) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		ref, err := engine.ActivateNotification(ctx, id)
		return openedMsg{id: id, ref: ref, err: err}
	}
}

func (m Model) markAllRead() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return markAllDoneMsg{err: engine.MarkAllRead(ctx)}
	}
}

func (m Model) refresh() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return refreshDoneMsg{err: engine.Refresh(ctx)}
	}
}

// login resolves a token if none was entered, then reports the identity.
func (m Model) login(userID, token string) tea.Cmd {
	issuer := m.issuer
	identities := m.identities
	return func() tea.Msg {
		if token == "" {
			if issuer == nil {
				return loggedInMsg{err: errors.New("a token is required")}
			}
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			issued, err := issuer.IssueToken(ctx, userID)
			if err != nil {
				return loggedInMsg{err: err}
			}
			token = issued
		}

		identity := model.Identity{UserID: userID, Token: token}
		if identities != nil {
			if err := identities.SaveIdentity(identity); err != nil {
				return loggedInMsg{err: err}
			}
		}
		return loggedInMsg{identity: identity}
	}
}

// logout ends the session and returns to the login form. The store is
// emptied synchronously, so no surface can show the old user's records.
func (m *Model) logout() tea.Cmd {
	m.engine.Deactivate()
	if m.identities != nil {
		if err := m.identities.DeleteIdentity(); err != nil {
			m.logger.Warn("forgetting identity failed", zap.Error(err))
		}
	}
	m.currentView = ViewLogin
	m.statusMsg = ""
	m.errMsg = ""
	return tea.Batch(m.loginView.Reset(nil), m.list.Load())
}

// quit stops the engine and exits.
func (m Model) quit() tea.Cmd {
	m.unsubscribe()
	m.engine.Deactivate()
	return tea.Quit
}
