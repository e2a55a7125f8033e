package api

// CountResponse is the body of GET /notifications/unread-count.
type CountResponse struct {
	Count int `json:"count"`
}

// MarkAllResponse is the body of PATCH /notifications/mark-all-read.
type MarkAllResponse struct {
	Updated int `json:"updated"`
}

// ErrorResponse is the JSON error envelope returned by the service.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// TokenResponse is the body returned by POST /auth/token.
type TokenResponse struct {
	Token string `json:"token"`
}

// CreateRequest is the body of POST /internal/notifications.
type CreateRequest struct {
	UserID           string `json:"user_id" binding:"required"`
	Type             string `json:"type" binding:"required"`
	Title            string `json:"title" binding:"required"`
	Message          string `json:"message"`
	RelatedEntityRef string `json:"related_entity_ref"`
}
