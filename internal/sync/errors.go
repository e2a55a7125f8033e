package sync

import (
	"errors"
	"fmt"
)

// ErrNotActive is returned when an operation needs an authenticated
// identity and none is active.
var ErrNotActive = errors.New("no active identity")

// ErrStaleIdentity marks a response that arrived after the identity it
// was issued for was cleared or replaced. Such responses are dropped;
// the error never reaches callers of Engine or Mutator.
var ErrStaleIdentity = errors.New("response discarded: identity changed")

// ErrUnknownNotification is returned when activating an id the store
// does not hold.
var ErrUnknownNotification = errors.New("unknown notification")

// FetchError is a failed refresh cycle. The poller logs and swallows it;
// the store is left as it was.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("refreshing notifications: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError is a failed mark-read call. ID is empty for mark-all.
// The store is unchanged and the call is not retried.
type MutationError struct {
	ID  string
	Err error
}

func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("marking all notifications read: %v", e.Err)
	}
	return fmt.Sprintf("marking notification %s read: %v", e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
