package store

import (
	"sort"

	"github.com/nhle/notification-sync/internal/model"
)

// SortForDisplay orders records newest first, breaking ties by id so the
// order is stable across re-renders. It sorts in place and returns records.
func SortForDisplay(records []model.Notification) []model.Notification {
	sort.SliceStable(records, func(i, j int) bool {
		return model.NewerFirst(records[i], records[j])
	})
	return records
}

// Partition splits records into unread and read, each in display order.
// Every record lands in exactly one of the two slices. Neither slice is
// nil, so callers can range and len without checks.
func Partition(records []model.Notification) (unread, read []model.Notification) {
	unread = make([]model.Notification, 0, len(records))
	read = make([]model.Notification, 0, len(records))
	for _, r := range records {
		if r.Read {
			read = append(read, r)
		} else {
			unread = append(unread, r)
		}
	}
	return SortForDisplay(unread), SortForDisplay(read)
}
