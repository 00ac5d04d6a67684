package models

import "time"

// Participant is a raffle profile. At most one per non-nil user_id,
// enforced by the registry rather than a database constraint.
type Participant struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Prenom    string    `json:"prenom"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	Classes   *string   `json:"classes,omitempty"`
	Emoji     string    `json:"emoji,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
