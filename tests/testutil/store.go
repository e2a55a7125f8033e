package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedNotification inserts n into s and fails the test on error.
func SeedNotification(t *testing.T, s store.Repository, n model.Notification) model.Notification {
	t.Helper()

	created, err := s.CreateNotification(context.Background(), n)
	if err != nil {
		t.Fatalf("seeding notification: %v", err)
	}
	return created
}

// Notification builds a record for tests. Minutes is the age of the
// record relative to a fixed base time, so larger values sort later.
func Notification(id string, read bool, minutes int) model.Notification {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return model.Notification{
		ID:        id,
		UserID:    "user-1",
		Kind:      model.KindRequestApproved,
		Title:     "Request " + id,
		Read:      read,
		CreatedAt: base.Add(-time.Duration(minutes) * time.Minute),
	}
}
