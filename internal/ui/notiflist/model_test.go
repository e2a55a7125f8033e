package notiflist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-sync/internal/keys"
	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/store"
)

func fixtureStore() *store.NotificationStore {
	now := time.Now()
	s := store.NewNotificationStore()
	s.ReplaceAll([]model.Notification{
		{ID: "A", Title: "A", CreatedAt: now},
		{ID: "B", Title: "B", Read: true, CreatedAt: now.Add(-time.Hour)},
		{ID: "C", Title: "C", CreatedAt: now.Add(-2 * time.Hour)},
	})
	return s
}

func itemIDs(m Model) []string {
	var out []string
	for _, it := range m.list.Items() {
		out = append(out, it.(Item).Notification.ID)
	}
	return out
}

func load(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.Load()()
	m, _ = m.Update(msg)
	return m
}

func TestModel_UnreadSectionFirst(t *testing.T) {
	m := load(t, New(fixtureStore(), keys.DefaultKeyMap(), 80, 20))

	assert.Equal(t, []string{"A", "C", "B"}, itemIDs(m))
}

func TestModel_FilterCycle(t *testing.T) {
	m := load(t, New(fixtureStore(), keys.DefaultKeyMap(), 80, 20))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FilterUnread, m.Filter())
	assert.Equal(t, []string{"A", "C"}, itemIDs(m))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FilterRead, m.Filter())
	assert.Equal(t, []string{"B"}, itemIDs(m))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FilterAll, m.Filter())
}

func TestModel_OpenEmitsSelectedID(t *testing.T) {
	m := load(t, New(fixtureStore(), keys.DefaultKeyMap(), 80, 20))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenMsg{ID: "A"}, cmd())
}

func TestModel_EmptyState(t *testing.T) {
	m := load(t, New(store.NewNotificationStore(), keys.DefaultKeyMap(), 80, 20))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "all caught up")
}

func TestDelegate_UnknownKindRenders(t *testing.T) {
	d := ItemDelegate{now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }}
	line := d.renderLine(model.Notification{
		ID:        "x",
		Kind:      "payment_failed",
		Title:     "Card declined",
		CreatedAt: time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
	}, false)

	assert.Contains(t, line, "Card declined")
	assert.Contains(t, line, "•")
	assert.Contains(t, line, "1h ago")
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "", relativeTime(time.Time{}, now))
	assert.Equal(t, "just now", relativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", relativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3d ago", relativeTime(now.Add(-72*time.Hour), now))
	assert.Equal(t, "Apr 01", relativeTime(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), now))
}
