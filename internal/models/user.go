package models

import "time"

// Role values a user may hold. Absence of a roles row implies no
// elevated privilege.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the authentication entity. It is linked to a raffle
// Participant only via the participant's optional user_id foreign key.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthContext is the resolved identity of a request: the session's user
// plus every role attached to it.
type AuthContext struct {
	User    *User
	Session *Session
	Roles   []string
}

// IsAdmin reports whether any attached role grants admin privilege.
func (c *AuthContext) IsAdmin() bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
