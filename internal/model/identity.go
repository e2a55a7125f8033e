package model

// Identity is the authenticated user a notification session is scoped to.
type Identity struct {
	// UserID uniquely identifies the user with the notification service.
	UserID string `json:"user_id"`

	// Token is the bearer token sent with every request.
	Token string `json:"-"`
}

// IsZero reports whether no identity is set.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// Same reports whether i and other refer to the same session. A token
// refresh for the same user is still the same session.
func (i Identity) Same(other Identity) bool {
	return i.UserID == other.UserID
}
