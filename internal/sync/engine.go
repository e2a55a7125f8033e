package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/notification-sync/internal/metrics"
	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/store"
)

// Engine wires the session, store, bridge, poller and mutator together.
// Surfaces read from Store() and listen on Bridge(); all writes go
// through the engine.
type Engine struct {
	connect Connector
	session *Session
	store   *store.NotificationStore
	bridge  *Bridge
	poller  *Poller
	mutator *Mutator
	logger  *zap.Logger

	manual bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared by every component.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
		e.poller.logger = l
		e.mutator.logger = l
	}
}

// WithMetrics records poll and mutation outcomes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) {
		e.poller.metrics = c
		e.mutator.metrics = c
	}
}

// WithInterval sets the time between refresh cycles.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poller.interval = d
		}
	}
}

// WithFetchTimeout bounds each background refresh cycle.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poller.fetchTimeout = d
		}
	}
}

// WithTickerFunc replaces the ticker factory used by the poller.
func WithTickerFunc(fn TickerFunc) Option {
	return func(e *Engine) {
		e.poller.newTicker = fn
	}
}

// WithoutPolling disables the background loop. Activate then only binds
// the identity and callers refresh explicitly, as one-shot commands do.
func WithoutPolling() Option {
	return func(e *Engine) {
		e.manual = true
	}
}

// NewEngine creates an inactive engine. connect is called on every
// Activate to bind a transport to the identity.
func NewEngine(connect Connector, opts ...Option) *Engine {
	logger := zap.NewNop()
	session := NewSession()
	s := store.NewNotificationStore()
	bridge := NewBridge()

	e := &Engine{
		connect: connect,
		session: session,
		store:   s,
		bridge:  bridge,
		poller:  NewPoller(session, s, bridge, logger),
		mutator: NewMutator(session, s, bridge, logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the notification store surfaces read from.
func (e *Engine) Store() *store.NotificationStore { return e.store }

// Bridge returns the count-change bridge surfaces subscribe to.
func (e *Engine) Bridge() *Bridge { return e.bridge }

// Poller returns the refresh loop, mainly for its status and results.
func (e *Engine) Poller() *Poller { return e.poller }

// Identity returns the active identity, zero when logged out.
func (e *Engine) Identity() model.Identity { return e.session.Identity() }

// Activate scopes the engine to identity and starts polling. Activating
// the identity already in use only refreshes its token. A different
// identity stops the old loop and empties the store first. A zero
// identity is treated as Deactivate.
func (e *Engine) Activate(identity model.Identity) {
	if identity.IsZero() {
		e.Deactivate()
		return
	}

	current := e.session.Identity()
	if !current.IsZero() && !current.Same(identity) {
		e.poller.Stop()
	}

	changed := e.session.begin(identity, e.connect(identity), e.reset)
	if changed {
		e.logger.Info("notification session started", zap.String("user_id", identity.UserID))
		e.bridge.Emit(0)
	}

	if !e.manual {
		e.poller.Start()
	}
}

// Deactivate stops polling and empties the store. In-flight responses
// for the old identity are discarded when they arrive.
func (e *Engine) Deactivate() {
	e.poller.Stop()

	wasActive := e.session.end(e.reset)
	if wasActive {
		e.logger.Info("notification session ended")
		e.bridge.Emit(0)
	}
}

// reset empties the store and zeroes the unread gauge with it.
func (e *Engine) reset() {
	e.store.Reset()
	e.poller.metrics.SetUnread(0)
}

// Refresh runs one fetch-and-replace cycle now and returns its error,
// unlike the background loop which swallows failures. A response that
// arrives for a previous identity is dropped silently.
func (e *Engine) Refresh(ctx context.Context) error {
	err := e.poller.Refresh(ctx)
	if errors.Is(err, ErrStaleIdentity) {
		return nil
	}
	return err
}

// TriggerRefresh asks the background loop for an immediate cycle.
func (e *Engine) TriggerRefresh() {
	e.poller.Trigger()
}

// MarkRead marks one notification read. See Mutator.MarkOne.
func (e *Engine) MarkRead(ctx context.Context, id string) error {
	return e.mutator.MarkOne(ctx, id)
}

// MarkAllRead marks every notification read. See Mutator.MarkAll.
func (e *Engine) MarkAllRead(ctx context.Context) error {
	return e.mutator.MarkAll(ctx)
}

// ServerUnreadCount asks the service for its unread count, which is
// cheaper than a full fetch. When the answer disagrees with the store a
// background refresh is triggered to converge.
func (e *Engine) ServerUnreadCount(ctx context.Context) (int, error) {
	identity, transport, gen := e.session.Snapshot()
	if identity.IsZero() || transport == nil {
		return 0, ErrNotActive
	}

	count, err := transport.UnreadCount(ctx)
	if err != nil {
		return 0, &FetchError{Err: err}
	}
	if !e.session.IsCurrent(gen) {
		return 0, ErrStaleIdentity
	}

	if local := e.store.UnreadCount(); local != count {
		e.logger.Debug("unread count drift",
			zap.Int("local", local),
			zap.Int("server", count),
		)
		e.poller.Trigger()
	}
	return count, nil
}

// ActivateNotification handles a user selecting a notification: it is
// marked read if needed and its related entity reference is returned for
// the caller to navigate to. The reference is returned even when marking
// read fails, alongside the error.
func (e *Engine) ActivateNotification(ctx context.Context, id string) (string, error) {
	rec, ok := e.store.Get(id)
	if !ok {
		return "", ErrUnknownNotification
	}
	if rec.Read {
		return rec.RelatedEntityRef, nil
	}
	return rec.RelatedEntityRef, e.mutator.MarkOne(ctx, id)
}
