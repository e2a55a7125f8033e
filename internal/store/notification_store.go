package store

import (
	gosync "sync"

	"github.com/nhle/notification-sync/internal/model"
)

// NotificationStore is the in-memory collection of notifications for the
// current identity. It is the only writer of record state; every other
// component reads derived views from it.
//
// The unread count is kept alongside the records and adjusted on every
// mutation so it always equals the number of records with Read == false.
type NotificationStore struct {
	mu      gosync.RWMutex
	records []model.Notification
	index   map[string]int
	unread  int
}

// NewNotificationStore returns an empty store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{index: make(map[string]int)}
}

// ReplaceAll swaps the whole collection for records. Nothing from the
// previous collection survives. When records repeats an id, the last
// occurrence wins so ids stay unique.
func (s *NotificationStore) ReplaceAll(records []model.Notification) {
	next := make([]model.Notification, 0, len(records))
	index := make(map[string]int, len(records))
	for _, r := range records {
		if i, ok := index[r.ID]; ok {
			next[i] = r
			continue
		}
		index[r.ID] = len(next)
		next = append(next, r)
	}

	unread := 0
	for _, r := range next {
		if !r.Read {
			unread++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
	s.index = index
	s.unread = unread
}

// Reset empties the store. Used when the identity is cleared or changes.
func (s *NotificationStore) Reset() {
	s.ReplaceAll(nil)
}

// MarkOneRead flips the record with the given id to read. It reports
// whether anything changed; an unknown or already-read id is a no-op.
func (s *NotificationStore) MarkOneRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok || s.records[i].Read {
		return false
	}
	s.records[i].Read = true
	s.unread--
	return true
}

// MarkAllRead flips every unread record to read and returns how many
// changed.
func (s *NotificationStore) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.records {
		if !s.records[i].Read {
			s.records[i].Read = true
			changed++
		}
	}
	s.unread = 0
	return changed
}

// Get returns the record with the given id.
func (s *NotificationStore) Get(id string) (model.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return model.Notification{}, false
	}
	return s.records[i], true
}

// UnreadCount returns the number of unread records.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Len returns the number of records.
func (s *NotificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every record in display order.
func (s *NotificationStore) All() []model.Notification {
	return SortForDisplay(s.snapshot())
}

// Unread returns the unread records in display order.
func (s *NotificationStore) Unread() []model.Notification {
	unread, _ := Partition(s.snapshot())
	return unread
}

// Read returns the read records in display order.
func (s *NotificationStore) Read() []model.Notification {
	_, read := Partition(s.snapshot())
	return read
}

// Partitioned returns both views computed from a single snapshot, so the
// two halves are always consistent with each other.
func (s *NotificationStore) Partitioned() (unread, read []model.Notification) {
	return Partition(s.snapshot())
}

// snapshot copies the records under the read lock.
func (s *NotificationStore) snapshot() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Notification, len(s.records))
	copy(out, s.records)
	return out
}
