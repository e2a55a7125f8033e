package model

import (
	"strings"
	"time"
)

// Kind classifies a notification. The set of known kinds is closed, but
// records carrying any other value are kept as-is and rendered with a
// default style.
type Kind string

const (
	KindRequestCreatedAdmin  Kind = "request_created_admin"
	KindRequestCreatedSystem Kind = "request_created_system"
	KindRequestApproved      Kind = "request_approved"
	KindRequestRejected      Kind = "request_rejected"
	KindRequestStatusUpdated Kind = "request_status_updated"
)

// Kinds lists every known notification kind.
var Kinds = []Kind{
	KindRequestCreatedAdmin,
	KindRequestCreatedSystem,
	KindRequestApproved,
	KindRequestRejected,
	KindRequestStatusUpdated,
}

// ParseKind normalizes a wire value into a Kind. It never fails: an
// unknown value is kept verbatim so it can still be shown.
func ParseKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}

// Notification is a single notification record owned by the service.
// Read is the only field a client ever changes.
type Notification struct {
	// ID is assigned by the service and never changes.
	ID string `json:"id"`

	// UserID is the identity the notification belongs to.
	UserID string `json:"user_id,omitempty"`

	// Kind drives icon and color selection in the UI.
	Kind Kind `json:"type"`

	// Title is the short headline.
	Title string `json:"title"`

	// Message is the body text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	// It only ever goes from false to true.
	Read bool `json:"read"`

	// RelatedEntityRef optionally points at a domain object
	// (e.g. a service request) to open when the notification is selected.
	RelatedEntityRef string `json:"related_entity_ref,omitempty"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}

// HasRelatedEntity reports whether selecting the notification should
// hand a reference to the caller for navigation.
func (n Notification) HasRelatedEntity() bool {
	return n.RelatedEntityRef != ""
}

// NewerFirst reports whether a sorts before b in display order:
// CreatedAt descending, ties broken by ID ascending.
func NewerFirst(a, b Notification) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}
