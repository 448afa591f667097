package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventUserUpdated    EventType = "user_updated"
	EventUserDeleted    EventType = "user_deleted"
	EventTokenRevoked   EventType = "token_revoked"
)

// Actor identifies who caused an event, when known.
type Actor struct {
	UserID *int64 `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Event represents an audit event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LoginFailureReason explains a failed login internally. It is never sent
// to the client.
type LoginFailureReason string

const (
	LoginUnknownEmail  LoginFailureReason = "unknown_email"
	LoginWrongPassword LoginFailureReason = "wrong_password"
)

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Email  string             `json:"email"`
	Reason LoginFailureReason `json:"reason"`
}

// UserPayload payload for register/update/delete/login events.
type UserPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenRevokedPayload payload.
type TokenRevokedPayload struct {
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
