package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/notification-sync/internal/metrics"
	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/store"
)

// SyncState represents the current state of the refresh loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus describes the last refresh cycle.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

const (
	// DefaultInterval is the time between two refresh cycles.
	DefaultInterval = 30 * time.Second

	// defaultFetchTimeout is the maximum time allowed for a single fetch.
	defaultFetchTimeout = 15 * time.Second
)

// Ticker is the subset of *time.Ticker the poller uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Poller keeps the store fresh by refreshing it on activation and then
// on a fixed interval. At most one loop runs at a time.
type Poller struct {
	session      *Session
	store        *store.NotificationStore
	bridge       *Bridge
	logger       *zap.Logger
	metrics      *metrics.Collector
	interval     time.Duration
	fetchTimeout time.Duration
	newTicker    TickerFunc

	mu        gosync.Mutex
	running   bool
	stopCh    chan struct{}
	triggerCh chan struct{}
	status    SyncStatus
}

// NewPoller creates a stopped poller.
func NewPoller(
	session *Session,
	s *store.NotificationStore,
	bridge *Bridge,
	logger *zap.Logger,
) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		session:      session,
		store:        s,
		bridge:       bridge,
		logger:       logger,
		interval:     DefaultInterval,
		fetchTimeout: defaultFetchTimeout,
		newTicker:    NewTimeTicker,
	}
}

// Start launches the refresh loop: one cycle immediately, then one per
// interval. It reports false and does nothing if a loop is already running.
func (p *Poller) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return false
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.triggerCh = make(chan struct{}, 1)
	p.status = SyncStatus{}

	ticker := p.newTicker(p.interval)
	go p.run(p.stopCh, p.triggerCh, ticker)

	p.logger.Debug("poller started", zap.Duration("interval", p.interval))
	return true
}

// Stop halts the loop. No cycle starts after Stop returns; a cycle
// already waiting on the service finishes, but its result is discarded
// once the session generation has moved on.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
	p.logger.Debug("poller stopped")
}

// Running reports whether a loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trigger asks the running loop for an immediate extra cycle.
// Requests made while one is already pending are coalesced, and
// requests made while stopped are ignored.
func (p *Poller) Trigger() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the state of the last cycle.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// run is the loop body. stopCh and triggerCh are owned by this run only,
// so a later Start never revives it and its triggers never reach it.
func (p *Poller) run(stopCh, triggerCh <-chan struct{}, ticker Ticker) {
	defer ticker.Stop()

	if stopped(stopCh) {
		return
	}
	p.cycle()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
		case <-triggerCh:
		}
		if stopped(stopCh) {
			return
		}
		p.cycle()
	}
}

// stopped reports whether stopCh is closed without blocking.
func stopped(stopCh <-chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

// cycle runs one refresh with its own timeout. Failures are logged and
// swallowed so the loop keeps going.
func (p *Poller) cycle() {
	ctx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
	defer cancel()

	err := p.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleIdentity):
		p.logger.Debug("discarding refresh for previous identity")
	case errors.Is(err, ErrNotActive):
		p.logger.Debug("skipping refresh without identity")
	default:
		p.logger.Warn("notification refresh failed", zap.Error(err))
	}
}

// Refresh fetches the full collection for the current identity and
// replaces the store with it. On any failure the store is untouched.
func (p *Poller) Refresh(ctx context.Context) error {
	identity, transport, gen := p.session.Snapshot()
	if identity.IsZero() || transport == nil {
		return ErrNotActive
	}

	p.setStatus(SyncRunning, nil)

	records, err := transport.ListNotifications(ctx)
	if err == nil {
		err = validateRecords(records)
	}
	if err != nil {
		if !p.session.IsCurrent(gen) {
			p.metrics.ObservePoll(metrics.ResultStale)
			return ErrStaleIdentity
		}
		fetchErr := &FetchError{Err: err}
		p.setStatus(SyncError, fetchErr)
		p.metrics.ObservePoll(metrics.ResultFailure)
		return fetchErr
	}

	applied := p.session.apply(gen, func() {
		p.store.ReplaceAll(records)
	})
	if !applied {
		p.metrics.ObservePoll(metrics.ResultStale)
		return ErrStaleIdentity
	}

	unread := p.store.UnreadCount()
	p.setStatus(SyncIdle, nil)
	p.metrics.ObservePoll(metrics.ResultSuccess)
	p.metrics.SetUnread(unread)
	p.bridge.Emit(unread)

	p.logger.Debug("notifications refreshed",
		zap.String("user_id", identity.UserID),
		zap.Int("total", len(records)),
		zap.Int("unread", unread),
	)
	return nil
}

// validateRecords rejects responses that would break store invariants.
// The whole response is refused rather than applied in part.
func validateRecords(records []model.Notification) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("malformed response: record %d has no id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("malformed response: duplicate id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// setStatus updates the sync status.
func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}
