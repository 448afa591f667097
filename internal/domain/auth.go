package domain

import "time"

// Claim is the identity embedded in a token at issuance. It is never
// re-checked against the credential store while the token lives.
type Claim struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// IssuedToken is a freshly signed token handed to the client.
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}
