package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/store"
	"github.com/nhle/notification-sync/tests/testutil"
)

func ids(records []model.Notification) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestNotificationStore_ReplaceAll(t *testing.T) {
	s := store.NewNotificationStore()
	s.ReplaceAll([]model.Notification{
		testutil.Notification("a", false, 1),
		testutil.Notification("b", true, 2),
		testutil.Notification("c", false, 3),
	})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.UnreadCount())

	s.ReplaceAll([]model.Notification{testutil.Notification("d", true, 1)})

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.UnreadCount())
	_, ok := s.Get("a")
	assert.False(t, ok, "records from the previous collection must not survive")
}

func TestNotificationStore_ReplaceAllLastDuplicateWins(t *testing.T) {
	s := store.NewNotificationStore()
	s.ReplaceAll([]model.Notification{
		testutil.Notification("a", false, 1),
		testutil.Notification("a", true, 1),
	})

	require.Equal(t, 1, s.Len())
	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.True(t, rec.Read)
	assert.Equal(t, 0, s.UnreadCount())
}

func TestNotificationStore_MarkOneRead(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		wantChanged bool
		wantUnread  int
	}{
		{name: "unread record", id: "a", wantChanged: true, wantUnread: 1},
		{name: "already read", id: "b", wantChanged: false, wantUnread: 2},
		{name: "unknown id", id: "zzz", wantChanged: false, wantUnread: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewNotificationStore()
			s.ReplaceAll([]model.Notification{
				testutil.Notification("a", false, 1),
				testutil.Notification("b", true, 2),
				testutil.Notification("c", false, 3),
			})
			changed := s.MarkOneRead(tt.id)

			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantUnread, s.UnreadCount())
			assert.Equal(t, 3, s.Len())
		})
	}
}

func TestNotificationStore_MarkAllRead(t *testing.T) {
	s := store.NewNotificationStore()
	s.ReplaceAll([]model.Notification{
		testutil.Notification("a", false, 1),
		testutil.Notification("b", true, 2),
		testutil.Notification("c", false, 3),
	})

	assert.Equal(t, 2, s.MarkAllRead())
	assert.Equal(t, 0, s.UnreadCount())
	assert.Empty(t, s.Unread())
	assert.Len(t, s.Read(), 3)

	assert.Equal(t, 0, s.MarkAllRead(), "second call changes nothing")
}

func TestNotificationStore_UnreadCountMatchesRecords(t *testing.T) {
	s := store.NewNotificationStore()
	s.ReplaceAll([]model.Notification{
		testutil.Notification("a", false, 1),
		testutil.Notification("b", false, 2),
		testutil.Notification("c", false, 3),
		testutil.Notification("d", true, 4),
	})

	steps := []func(){
		func() { s.MarkOneRead("b") },
		func() { s.MarkOneRead("b") },
		func() { s.MarkOneRead("missing") },
		func() { s.ReplaceAll(append(s.All(), testutil.Notification("e", false, 0))) },
		func() { s.MarkAllRead() },
		func() { s.Reset() },
	}

	for i, step := range steps {
		step()
		unread := 0
		for _, r := range s.All() {
			if !r.Read {
				unread++
			}
		}
		assert.Equal(t, unread, s.UnreadCount(), "step %d", i)
		assert.Len(t, s.Unread(), s.UnreadCount(), "step %d", i)
	}
}

func TestNotificationStore_Views(t *testing.T) {
	s := store.NewNotificationStore()
	s.ReplaceAll([]model.Notification{
		testutil.Notification("old-unread", false, 30),
		testutil.Notification("new-read", true, 1),
		testutil.Notification("new-unread", false, 2),
		testutil.Notification("old-read", true, 40),
	})

	unread, read := s.Partitioned()
	assert.Equal(t, []string{"new-unread", "old-unread"}, ids(unread))
	assert.Equal(t, []string{"new-read", "old-read"}, ids(read))
	assert.Equal(t, []string{"new-read", "new-unread", "old-unread", "old-read"}, ids(s.All()))
}

func TestNotificationStore_ViewsAreCopies(t *testing.T) {
	s := store.NewNotificationStore()
	s.ReplaceAll([]model.Notification{testutil.Notification("a", false, 1)})

	all := s.All()
	all[0].Read = true

	rec, _ := s.Get("a")
	assert.False(t, rec.Read)
	assert.Equal(t, 1, s.UnreadCount())
}

func TestNotificationStore_Reset(t *testing.T) {
	s := store.NewNotificationStore()
	s.ReplaceAll([]model.Notification{testutil.Notification("a", false, 1)})

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.UnreadCount())
	assert.NotNil(t, s.Unread())
	assert.NotNil(t, s.Read())
}
