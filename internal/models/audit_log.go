package models

import "time"

// Audit actions recorded by the service.
const (
	AuditLoginSuccess       = "LOGIN_SUCCESS"
	AuditLoginFailed        = "LOGIN_FAILED"
	AuditRegister           = "REGISTER"
	AuditLogout             = "LOGOUT"
	AuditPasswordChanged    = "PASSWORD_CHANGED"
	AuditAccountDeleted     = "ACCOUNT_DELETED"
	AuditParticipantCreated = "PARTICIPANT_CREATED"
	AuditParticipantDeleted = "PARTICIPANT_DELETED"
	AuditLotCreated         = "LOT_CREATED"
	AuditLotReserved        = "LOT_RESERVED"
	AuditLotReleased        = "LOT_RELEASED"
	AuditLotRemis           = "LOT_REMIS"
	AuditLotDeleted         = "LOT_DELETED"
	AuditLotForced          = "LOT_STATUT_FORCED"
	AuditNewsletterSent     = "NEWSLETTER_SENT"
)

// Resource types referenced by audit entries.
const (
	ResourceUser        = "user"
	ResourceSession     = "session"
	ResourceParticipant = "participant"
	ResourceLot         = "lot"
	ResourceNewsletter  = "newsletter"
)

// AuditLogEntry is an append-only security/state-change record. Rows
// are never updated; they are deleted only when their user cascades.
type AuditLogEntry struct {
	ID           string    `json:"id"`
	UserID       *string   `json:"user_id,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   *string   `json:"resource_id,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	Details      *string   `json:"details,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
