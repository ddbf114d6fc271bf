package domain

import "time"

// User is an account that can authenticate. Role is fixed at creation.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity returns the identity a session binds for u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Role: u.Role}
}
