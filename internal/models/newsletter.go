package models

import "time"

// Newsletter subscription states.
const (
	SubscriberPending   = "pending"
	SubscriberConfirmed = "confirmed"
)

// NewsletterSubscriber is one mailing-list entry. A pending row holds a
// confirmation token; the row flips to confirmed when the token is
// presented before ConfirmExpiresAt.
type NewsletterSubscriber struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Status           string     `json:"status"`
	ConfirmToken     *string    `json:"-"`
	ConfirmExpiresAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}
