package dto

import "time"

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse standard response for the login endpoint.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeResponse echoes the caller's claim.
type MeResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// UpdateUserRequest is a partial update; omitted fields stay unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"nombre"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}
