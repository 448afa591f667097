package domain

import "time"

// User is a credential record: identity, role and salted password hash.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the outward view of a user. It never carries the hash.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"nombre,omitempty"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Summary strips credential material from the record.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
