package domain

import "time"

// User is the persistent account record backing a session's subject.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	// RoleUser is the default role assigned at registration.
	RoleUser = "user"
	// RoleAdmin marks accounts with administrative access.
	RoleAdmin = "admin"
)

// PendingRegistration holds a registration awaiting email verification.
// It lives only in the session store; the user row is created once the
// verification token is redeemed.
type PendingRegistration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
}
