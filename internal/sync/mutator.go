package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/nhle/notification-sync/internal/metrics"
	"github.com/nhle/notification-sync/internal/store"
)

// Mutator performs mark-read requests and applies them to the store
// only after the service confirms them. Nothing is changed locally
// before the confirmation arrives, so a failure needs no rollback.
type Mutator struct {
	session *Session
	store   *store.NotificationStore
	bridge  *Bridge
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewMutator creates a Mutator.
func NewMutator(
	session *Session,
	s *store.NotificationStore,
	bridge *Bridge,
	logger *zap.Logger,
) *Mutator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mutator{
		session: session,
		store:   s,
		bridge:  bridge,
		logger:  logger,
	}
}

// MarkOne marks a single notification read. If the store does not hold
// an unread record with that id the call is a no-op and the service is
// not contacted. A failed request returns a *MutationError and leaves
// the record unread.
func (m *Mutator) MarkOne(ctx context.Context, id string) error {
	identity, transport, gen := m.session.Snapshot()
	if identity.IsZero() || transport == nil {
		return ErrNotActive
	}

	rec, ok := m.store.Get(id)
	if !ok || rec.Read {
		return nil
	}

	if err := transport.MarkRead(ctx, id); err != nil {
		if !m.session.IsCurrent(gen) {
			m.discard("one", id)
			return nil
		}
		m.metrics.ObserveMutation("one", metrics.ResultFailure)
		m.logger.Error("mark read failed",
			zap.String("notification_id", id),
			zap.Error(err),
		)
		return &MutationError{ID: id, Err: err}
	}

	applied := m.session.apply(gen, func() {
		m.store.MarkOneRead(id)
	})
	if !applied {
		m.discard("one", id)
		return nil
	}

	unread := m.store.UnreadCount()
	m.metrics.ObserveMutation("one", metrics.ResultSuccess)
	m.metrics.SetUnread(unread)
	m.bridge.Emit(unread)
	return nil
}

// MarkAll marks every notification read. The request is always sent,
// since the service may know about records the store has not seen yet.
func (m *Mutator) MarkAll(ctx context.Context) error {
	identity, transport, gen := m.session.Snapshot()
	if identity.IsZero() || transport == nil {
		return ErrNotActive
	}

	if err := transport.MarkAllRead(ctx); err != nil {
		if !m.session.IsCurrent(gen) {
			m.discard("all", "")
			return nil
		}
		m.metrics.ObserveMutation("all", metrics.ResultFailure)
		m.logger.Error("mark all read failed", zap.Error(err))
		return &MutationError{Err: err}
	}

	applied := m.session.apply(gen, func() {
		m.store.MarkAllRead()
	})
	if !applied {
		m.discard("all", "")
		return nil
	}

	unread := m.store.UnreadCount()
	m.metrics.ObserveMutation("all", metrics.ResultSuccess)
	m.metrics.SetUnread(unread)
	m.bridge.Emit(unread)
	return nil
}

// discard records a response that arrived for a previous identity.
func (m *Mutator) discard(op, id string) {
	m.metrics.ObserveMutation(op, metrics.ResultStale)
	m.logger.Debug("discarding mark read for previous identity",
		zap.String("op", op),
		zap.String("notification_id", id),
	)
}
