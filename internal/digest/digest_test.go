package digest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-sync/internal/model"
)

func TestWrite_ListsUnreadOnly(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []model.Notification{
		{ID: "a", Kind: model.KindRequestApproved, Title: "Plumbing approved", Message: "See you Monday", RelatedEntityRef: "request:1", CreatedAt: now.Add(-time.Hour)},
		{ID: "b", Kind: model.KindRequestRejected, Title: "Painting rejected", Read: true, CreatedAt: now},
		{ID: "c", Kind: "payment_failed", Title: "<Card> declined", CreatedAt: now},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, model.Identity{UserID: "alice"}, records, now))

	parsed, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, "2 unread notifications", parsed.Subject)
	assert.Contains(t, parsed.Text, "[request_approved] Plumbing approved")
	assert.Contains(t, parsed.Text, "ref: request:1")
	assert.Contains(t, parsed.Text, "[payment_failed] <Card> declined")
	assert.NotContains(t, parsed.Text, "Painting rejected")
	assert.Less(t, bytes.Index([]byte(parsed.Text), []byte("declined")),
		bytes.Index([]byte(parsed.Text), []byte("Plumbing")), "newest first")
	assert.Contains(t, parsed.HTML, "&lt;Card&gt; declined")
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, model.Identity{UserID: "bob"}, nil, time.Now()))

	parsed, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "No unread notifications", parsed.Subject)
	assert.Contains(t, parsed.Text, "all caught up")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "1 unread notification", Subject(1))
	assert.Equal(t, "5 unread notifications", Subject(5))
}
